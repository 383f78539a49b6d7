// Package summary derives totals and budget status from already loaded
// categories, expenses and budgets. It does not touch the store.
package summary

import (
	"sort"
	"time"

	"finance-tracker/internal/models"
)

// MonthFormat is the layout of a month token.
const MonthFormat = "2006-01"

// MonthToken returns the YYYY-MM token for t.
func MonthToken(t time.Time) string {
	return t.Format(MonthFormat)
}

// CategoryTotals sums expense amounts per category name. Categories without
// expenses are omitted, as are expenses whose category is not listed.
// Categories sharing a name are summed together.
func CategoryTotals(categories []models.Category, expenses []models.Expense) map[string]float64 {
	byID := totalsByCategoryID(expenses, "")

	totals := make(map[string]float64)
	for _, c := range categories {
		if total, ok := byID[c.ID]; ok {
			totals[c.Name] += total
		}
	}
	return totals
}

// totalsByCategoryID sums expenses per category ID. A non-empty month limits
// the sum to expenses dated in that month.
func totalsByCategoryID(expenses []models.Expense, month string) map[int64]float64 {
	totals := make(map[int64]float64)
	for _, e := range expenses {
		if month != "" && MonthToken(e.Date) != month {
			continue
		}
		totals[e.CategoryID] += e.Amount
	}
	return totals
}

// Status compares one budget with the spending in its category and month.
type Status struct {
	Budget    models.Budget
	Category  string
	Limit     float64
	Spent     float64
	Remaining float64
	// Percent is Spent as a share of Limit; 0 when Limit is 0.
	Percent float64
	Over    bool
}

// BudgetStatus reports, for each budget, how much was spent in its category
// during the budget's month. The result keeps the order of budgets.
func BudgetStatus(budgets []models.Budget, categories []models.Category, expenses []models.Expense) []Status {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	spentByMonth := make(map[string]map[int64]float64)
	statuses := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		spent, ok := spentByMonth[b.Month]
		if !ok {
			spent = totalsByCategoryID(expenses, b.Month)
			spentByMonth[b.Month] = spent
		}

		s := Status{
			Budget:    b,
			Category:  names[b.CategoryID],
			Limit:     b.Amount,
			Spent:     spent[b.CategoryID],
			Remaining: b.Amount - spent[b.CategoryID],
		}
		if s.Limit > 0 {
			s.Percent = s.Spent / s.Limit * 100
		}
		s.Over = s.Spent > s.Limit
		statuses = append(statuses, s)
	}
	return statuses
}

// Slice is one segment of the spending chart.
type Slice struct {
	Name  string
	Value float64
}

// ChartSlices turns totals into chart segments sorted by name, dropping
// non-positive totals.
func ChartSlices(totals map[string]float64) []Slice {
	slices := make([]Slice, 0, len(totals))
	for name, total := range totals {
		if total > 0 {
			slices = append(slices, Slice{Name: name, Value: total})
		}
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Name < slices[j].Name })
	return slices
}

// Total sums all values in totals.
func Total(totals map[string]float64) float64 {
	var sum float64
	for _, v := range totals {
		sum += v
	}
	return sum
}
