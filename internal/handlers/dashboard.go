package handlers

import (
	"errors"
	"net/http"

	"finance-tracker/internal/chart"
	"finance-tracker/internal/models"
	"finance-tracker/internal/summary"
)

// recentLimit is how many expenses the dashboard lists.
const recentLimit = 10

// BudgetRow is a budget with its category name resolved.
type BudgetRow struct {
	models.Budget
	Category string
}

func budgetRows(categories []models.Category, budgets []models.Budget) []BudgetRow {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	rows := make([]BudgetRow, 0, len(budgets))
	for _, b := range budgets {
		rows = append(rows, BudgetRow{Budget: b, Category: names[b.CategoryID]})
	}
	return rows
}

// DashboardViewModel is the data passed to the dashboard template.
// Budgets holds every month; Statuses only the current one.
type DashboardViewModel struct {
	Page
	Month      string
	Total      float64
	Categories []models.Category
	Budgets    []BudgetRow
	Expenses   []models.Expense
	Totals     []summary.Slice
	Statuses   []summary.Status
	Recent     []ExpenseRow
	HasChart   bool
}

// ShowDashboard renders totals per category, the status of the current
// month's budgets, all budgets and the most recent expenses.
func (h *Handlers) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	ctx := r.Context()

	expenses, err := h.db.ListExpenses(ctx, user.ID)
	if err != nil {
		h.serverError(w, r, "dashboard expenses", err)
		return
	}
	categories, err := h.db.ListCategories(ctx, user.ID)
	if err != nil {
		h.serverError(w, r, "dashboard categories", err)
		return
	}
	budgets, err := h.db.ListBudgets(ctx, user.ID)
	if err != nil {
		h.serverError(w, r, "dashboard budgets", err)
		return
	}
	month := summary.MonthToken(h.now())
	current, err := h.db.ListBudgetsForMonth(ctx, user.ID, month)
	if err != nil {
		h.serverError(w, r, "dashboard budgets", err)
		return
	}

	totals := summary.CategoryTotals(categories, expenses)
	slices := summary.ChartSlices(totals)

	recent := expenses
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	h.render(w, r, "dashboard.html", DashboardViewModel{
		Page:       Page{Title: "Dashboard", User: user},
		Month:      month,
		Total:      summary.Total(totals),
		Categories: categories,
		Budgets:    budgetRows(categories, budgets),
		Expenses:   expenses,
		Totals:     slices,
		Statuses:   summary.BudgetStatus(current, categories, expenses),
		Recent:     expenseRows(categories, recent),
		HasChart:   len(slices) > 0,
	})
}

// Chart serves the user's spending per category as a PNG pie chart.
func (h *Handlers) Chart(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	ctx := r.Context()

	categories, err := h.db.ListCategories(ctx, user.ID)
	if err != nil {
		h.serverError(w, r, "chart categories", err)
		return
	}
	expenses, err := h.db.ListExpenses(ctx, user.ID)
	if err != nil {
		h.serverError(w, r, "chart expenses", err)
		return
	}

	png, err := chart.RenderPie(summary.ChartSlices(summary.CategoryTotals(categories, expenses)), "Expense Distribution")
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, "render chart", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
