package handlers

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/shopspring/decimal"
)

// ValidationError reports a malformed form field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

// maxAmount bounds a single amount so that sums over many rows stay finite.
var maxAmount = decimal.New(1, 12)

// parseAmount parses a non-negative decimal amount no larger than maxAmount.
// Unlike strconv.ParseFloat it rejects NaN, Inf and exponent forms.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "amount", Msg: "Amount is required"}
	}
	if strings.ContainsAny(s, "eE") {
		return 0, &ValidationError{Field: "amount", Msg: "Amount must be a number"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Msg: "Amount must be a number"}
	}
	if d.IsNegative() {
		return 0, &ValidationError{Field: "amount", Msg: "Amount must not be negative"}
	}
	if d.GreaterThan(maxAmount) {
		return 0, &ValidationError{Field: "amount", Msg: "Amount is too large"}
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &ValidationError{Field: "amount", Msg: "Amount must be a number"}
	}
	return f, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "date", Msg: "Date is required"}
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Msg: "Date must be in YYYY-MM-DD format"}
	}
	return d, nil
}

// resolveCategory parses a category id and checks that userID owns it.
func (h *Handlers) resolveCategory(ctx context.Context, userID int64, s string) (*models.Category, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "category_id", Msg: "Please choose a category"}
	}
	c, err := h.db.GetCategory(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ValidationError{Field: "category_id", Msg: "Unknown category"}
		}
		return nil, err
	}
	return c, nil
}
