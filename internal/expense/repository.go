package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/homebooks/internal/db"
)

// ErrNotFound is returned when an expense does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("expense not found")

// Repository provides expense persistence. Writes take the caller's queryer
// so they can run inside an ambient transaction alongside the audit trail.
type Repository struct{}

// NewRepository creates a new Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes a new expense row.
func (r *Repository) Insert(ctx context.Context, q db.Queryer, e *Expense) error {
	query := `
		INSERT INTO expenses (id, household_id, vendor_id, category_id, fund_id, description, amount_cents, spent_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.ExecContext(ctx, query,
		e.ID, e.HouseholdID, e.VendorID, e.CategoryID, e.FundID,
		e.Description, e.AmountCents, e.SpentOn, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense by UUID, excluding soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, q db.Queryer, id string) (*Expense, error) {
	query := `
		SELECT id, household_id, vendor_id, category_id, fund_id, description, amount_cents, spent_on, created_at, updated_at, deleted_at
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL
	`
	var e Expense
	err := q.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.HouseholdID, &e.VendorID, &e.CategoryID, &e.FundID,
		&e.Description, &e.AmountCents, &e.SpentOn, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &e, nil
}

// ListByHousehold retrieves the non-deleted expenses of a household, newest
// spend date first.
func (r *Repository) ListByHousehold(ctx context.Context, q db.Queryer, householdID string, limit int) ([]*Expense, error) {
	query := `
		SELECT id, household_id, vendor_id, category_id, fund_id, description, amount_cents, spent_on, created_at, updated_at, deleted_at
		FROM expenses
		WHERE household_id = $1 AND deleted_at IS NULL
		ORDER BY spent_on DESC, id ASC
		LIMIT $2
	`
	rows, err := q.QueryContext(ctx, query, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*Expense
	for rows.Next() {
		var e Expense
		err := rows.Scan(
			&e.ID, &e.HouseholdID, &e.VendorID, &e.CategoryID, &e.FundID,
			&e.Description, &e.AmountCents, &e.SpentOn, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return out, nil
}
