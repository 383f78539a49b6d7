package handlers

import (
	"context"
	"errors"
	"net/http"

	"finance-tracker/internal/logger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/summary"
)

// BudgetsViewModel is the data passed to the budgets template.
type BudgetsViewModel struct {
	Page
	Month      string
	Categories []models.Category
	Budgets    []models.Budget
	Statuses   []summary.Status
}

func (h *Handlers) budgetsView(ctx context.Context, user *models.User) (BudgetsViewModel, error) {
	categories, err := h.db.ListCategories(ctx, user.ID)
	if err != nil {
		return BudgetsViewModel{}, err
	}
	budgets, err := h.db.ListBudgets(ctx, user.ID)
	if err != nil {
		return BudgetsViewModel{}, err
	}
	expenses, err := h.db.ListExpenses(ctx, user.ID)
	if err != nil {
		return BudgetsViewModel{}, err
	}
	return BudgetsViewModel{
		Page:       Page{Title: "Budgets", User: user},
		Month:      summary.MonthToken(h.now()),
		Categories: categories,
		Budgets:    budgets,
		Statuses:   summary.BudgetStatus(budgets, categories, expenses),
	}, nil
}

// ListBudgets renders the user's budgets.
func (h *Handlers) ListBudgets(w http.ResponseWriter, r *http.Request) {
	vm, err := h.budgetsView(r.Context(), GetUserFromContext(r))
	if err != nil {
		h.serverError(w, r, "list budgets", err)
		return
	}
	h.render(w, r, "budgets.html", vm)
}

// SetBudget creates or overwrites the budget of a category for the current month.
func (h *Handlers) SetBudget(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	budget, err := h.upsertBudget(r, user)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			h.serverError(w, r, "set budget", err)
			return
		}
		vm, err := h.budgetsView(r.Context(), user)
		if err != nil {
			h.serverError(w, r, "list budgets", err)
			return
		}
		vm.Error = verr.Msg
		h.renderStatus(w, r, http.StatusBadRequest, "budgets.html", vm)
		return
	}
	logger.Log.Debug().Int64("user_id", user.ID).Int64("budget_id", budget.ID).Str("month", budget.Month).Msg("budget set")

	http.Redirect(w, r, "/budgets", http.StatusFound)
}

func (h *Handlers) upsertBudget(r *http.Request, user *models.User) (*models.Budget, error) {
	if err := r.ParseForm(); err != nil {
		return nil, &ValidationError{Field: "form", Msg: "Invalid form submission"}
	}
	amount, err := parseAmount(r.FormValue("amount"))
	if err != nil {
		return nil, err
	}
	category, err := h.resolveCategory(r.Context(), user.ID, r.FormValue("category_id"))
	if err != nil {
		return nil, err
	}
	month := summary.MonthToken(h.now())
	return h.db.UpsertBudget(r.Context(), user.ID, category.ID, month, amount)
}
