package income

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/homebooks/internal/db"
)

// ErrNotFound is returned when an income does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("income not found")

// Repository provides income persistence. Writes take the caller's queryer
// so they can run inside an ambient transaction alongside the audit trail.
type Repository struct{}

// NewRepository creates a new Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes a new income row.
func (r *Repository) Insert(ctx context.Context, q db.Queryer, i *Income) error {
	query := `
		INSERT INTO incomes (id, household_id, source, amount_cents, received_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query,
		i.ID, i.HouseholdID, i.Source, i.AmountCents, i.ReceivedOn, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert income: %w", err)
	}
	return nil
}

// GetByID retrieves an income by UUID, excluding soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, q db.Queryer, id string) (*Income, error) {
	query := `
		SELECT id, household_id, source, amount_cents, received_on, created_at, updated_at, deleted_at
		FROM incomes
		WHERE id = $1 AND deleted_at IS NULL
	`
	var i Income
	err := q.QueryRowContext(ctx, query, id).Scan(
		&i.ID, &i.HouseholdID, &i.Source, &i.AmountCents, &i.ReceivedOn,
		&i.CreatedAt, &i.UpdatedAt, &i.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get income: %w", err)
	}
	return &i, nil
}
