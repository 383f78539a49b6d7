package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"
)

// ListCategories returns the user's categories in creation order.
func (db *DB) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, user_id FROM categories WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory retrieves a category by ID, scoped to its owner.
func (db *DB) GetCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, name, user_id FROM categories WHERE id = ? AND user_id = ?",
		id, userID,
	)
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateExpense inserts a new expense and sets its ID.
// A zero Date is replaced with the current time.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Date = e.Date.UTC()
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO expenses (amount, description, date, category_id, user_id) VALUES (?, ?, ?, ?, ?)",
		e.Amount, e.Description, e.Date, e.CategoryID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = result.LastInsertId()
	return err
}

const expenseColumns = "id, amount, description, date, category_id, user_id"

// ListExpenses retrieves all of the user's expenses, most recent first.
func (db *DB) ListExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	return db.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID,
	)
}

// ListExpensesByCategory retrieves the user's expenses in one category, most recent first.
func (db *DB) ListExpensesByCategory(ctx context.Context, userID, categoryID int64) ([]models.Expense, error) {
	return db.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND category_id = ? ORDER BY date DESC, id DESC",
		userID, categoryID,
	)
}

func (db *DB) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Description, &e.Date, &e.CategoryID, &e.UserID); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UpsertBudget sets the user's budget for a category and month,
// overwriting the amount when one already exists.
func (db *DB) UpsertBudget(ctx context.Context, userID, categoryID int64, month string, amount float64) (*models.Budget, error) {
	b := models.Budget{Amount: amount, Month: month, CategoryID: categoryID, UserID: userID}
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM budgets WHERE user_id = ? AND category_id = ? AND month = ? ORDER BY id LIMIT 1",
			userID, categoryID, month,
		).Scan(&b.ID)

		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, "UPDATE budgets SET amount = ? WHERE id = ?", amount, b.ID)
			return err
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx,
				"INSERT INTO budgets (amount, month, category_id, user_id) VALUES (?, ?, ?, ?)",
				amount, month, categoryID, userID,
			)
			if err != nil {
				return err
			}
			b.ID, err = result.LastInsertId()
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return &b, nil
}

const budgetColumns = "id, amount, month, category_id, user_id"

// ListBudgets retrieves all of the user's budgets, newest month first.
func (db *DB) ListBudgets(ctx context.Context, userID int64) ([]models.Budget, error) {
	return db.queryBudgets(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY month DESC, category_id",
		userID,
	)
}

// ListBudgetsForMonth retrieves the user's budgets for one YYYY-MM month.
func (db *DB) ListBudgetsForMonth(ctx context.Context, userID int64, month string) ([]models.Budget, error) {
	return db.queryBudgets(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND month = ? ORDER BY category_id",
		userID, month,
	)
}

func (db *DB) queryBudgets(ctx context.Context, query string, args ...any) ([]models.Budget, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.Amount, &b.Month, &b.CategoryID, &b.UserID); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
