package household

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/homebooks/internal/db"
)

// ErrNotFound is returned when a household does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("household not found")

// Repository provides household persistence. Writes take the caller's
// queryer so they can run inside an ambient transaction alongside the audit
// trail.
type Repository struct{}

// NewRepository creates a new Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes a new household row.
func (r *Repository) Insert(ctx context.Context, q db.Queryer, h *Household) error {
	query := `
		INSERT INTO households (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.ExecContext(ctx, query, h.ID, h.Name, h.CreatedAt, h.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert household: %w", err)
	}
	return nil
}

// GetByID retrieves a household by UUID, excluding soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, q db.Queryer, id string) (*Household, error) {
	query := `
		SELECT id, name, created_at, updated_at, deleted_at
		FROM households
		WHERE id = $1 AND deleted_at IS NULL
	`
	var h Household
	err := q.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt, &h.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return &h, nil
}
