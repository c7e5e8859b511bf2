package budget

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/homebooks/internal/db"
)

// Repository errors.
var (
	ErrNotFound      = errors.New("budget not found")
	ErrMonthNotFound = errors.New("budget month not found")
)

// Repository provides budget and budget-month persistence. Writes take the
// caller's queryer so they can run inside an ambient transaction alongside
// the audit trail.
type Repository struct{}

// NewRepository creates a new Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes a new budget row.
func (r *Repository) Insert(ctx context.Context, q db.Queryer, b *Budget) error {
	query := `
		INSERT INTO budgets (id, household_id, name, year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query, b.ID, b.HouseholdID, b.Name, b.Year, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

// GetByID retrieves a budget by UUID, excluding soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, q db.Queryer, id string) (*Budget, error) {
	query := `
		SELECT id, household_id, name, year, created_at, updated_at, deleted_at
		FROM budgets
		WHERE id = $1 AND deleted_at IS NULL
	`
	var b Budget
	err := q.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.HouseholdID, &b.Name, &b.Year, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &b, nil
}

// InsertMonth writes a new budget month row.
func (r *Repository) InsertMonth(ctx context.Context, q db.Queryer, m *Month) error {
	query := `
		INSERT INTO budget_months (id, budget_id, month, planned_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query, m.ID, m.BudgetID, m.Month, m.PlannedCents, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert budget month: %w", err)
	}
	return nil
}

// GetMonth retrieves one month of a budget.
func (r *Repository) GetMonth(ctx context.Context, q db.Queryer, budgetID string, month int) (*Month, error) {
	query := `
		SELECT id, budget_id, month, planned_cents, created_at, updated_at
		FROM budget_months
		WHERE budget_id = $1 AND month = $2
	`
	var m Month
	err := q.QueryRowContext(ctx, query, budgetID, month).Scan(
		&m.ID, &m.BudgetID, &m.Month, &m.PlannedCents, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMonthNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget month: %w", err)
	}
	return &m, nil
}
