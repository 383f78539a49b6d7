package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"finance-tracker/internal/logger"
	"finance-tracker/internal/models"
)

// ExpenseRow is an expense with its category name resolved.
type ExpenseRow struct {
	models.Expense
	Category string
}

// ExpensesViewModel is the data passed to the expenses template.
type ExpensesViewModel struct {
	Page
	Categories []models.Category
	Expenses   []ExpenseRow
	Today      string
	Filter     int64
}

func expenseRows(categories []models.Category, expenses []models.Expense) []ExpenseRow {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	rows := make([]ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, ExpenseRow{Expense: e, Category: names[e.CategoryID]})
	}
	return rows
}

// expensesView lists the user's expenses, limited to one category when
// filter is non-zero.
func (h *Handlers) expensesView(ctx context.Context, user *models.User, filter int64) (ExpensesViewModel, error) {
	categories, err := h.db.ListCategories(ctx, user.ID)
	if err != nil {
		return ExpensesViewModel{}, err
	}

	var expenses []models.Expense
	if filter != 0 {
		expenses, err = h.db.ListExpensesByCategory(ctx, user.ID, filter)
	} else {
		expenses, err = h.db.ListExpenses(ctx, user.ID)
	}
	if err != nil {
		return ExpensesViewModel{}, err
	}

	return ExpensesViewModel{
		Page:       Page{Title: "Expenses", User: user},
		Categories: categories,
		Expenses:   expenseRows(categories, expenses),
		Today:      h.now().Format("2006-01-02"),
		Filter:     filter,
	}, nil
}

// ListExpenses renders the user's expenses, newest first. An optional
// category query parameter narrows the list to one of the user's categories.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var filter int64
	if q := r.URL.Query().Get("category"); q != "" {
		c, err := h.resolveCategory(r.Context(), user.ID, q)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				h.serverError(w, r, "list expenses", err)
				return
			}
			http.Redirect(w, r, "/expenses", http.StatusFound)
			return
		}
		filter = c.ID
	}

	vm, err := h.expensesView(r.Context(), user, filter)
	if err != nil {
		h.serverError(w, r, "list expenses", err)
		return
	}
	h.render(w, r, "expenses.html", vm)
}

// AddExpense handles the creation of a new expense.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	expense, err := h.parseExpenseForm(r, user)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			h.serverError(w, r, "add expense", err)
			return
		}
		vm, err := h.expensesView(r.Context(), user, 0)
		if err != nil {
			h.serverError(w, r, "list expenses", err)
			return
		}
		vm.Error = verr.Msg
		h.renderStatus(w, r, http.StatusBadRequest, "expenses.html", vm)
		return
	}

	if err := h.db.CreateExpense(r.Context(), expense); err != nil {
		h.serverError(w, r, "add expense", err)
		return
	}
	logger.Log.Debug().Int64("user_id", user.ID).Int64("expense_id", expense.ID).Msg("expense added")

	http.Redirect(w, r, "/expenses", http.StatusFound)
}

func (h *Handlers) parseExpenseForm(r *http.Request, user *models.User) (*models.Expense, error) {
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
	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		return nil, err
	}

	return &models.Expense{
		Amount:      amount,
		Description: strings.TrimSpace(r.FormValue("description")),
		Date:        date,
		CategoryID:  category.ID,
		UserID:      user.ID,
	}, nil
}
