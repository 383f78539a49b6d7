package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the application routes. Everything except the login and
// registration pages requires a session.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/", h.ShowDashboard)
		r.Get("/chart.png", h.Chart)
		r.Get("/logout", h.Logout)
		r.Get("/expenses", h.ListExpenses)
		r.Post("/add_expense", h.AddExpense)
		r.Get("/budgets", h.ListBudgets)
		r.Post("/set_budget", h.SetBudget)
	})

	return r
}
