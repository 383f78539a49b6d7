package models

import "time"

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category is a user-owned label used to classify expenses and budgets.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"user_id"`
}

// Expense represents a financial expense record.
type Expense struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CategoryID  int64     `json:"category_id"`
	UserID      int64     `json:"user_id"`
}

// Budget is a monthly spending limit for one category.
// Month has the form YYYY-MM.
type Budget struct {
	ID         int64   `json:"id"`
	Amount     float64 `json:"amount"`
	Month      string  `json:"month"`
	CategoryID int64   `json:"category_id"`
	UserID     int64   `json:"user_id"`
}
