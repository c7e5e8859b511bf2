package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/homebooks/internal/db"
)

// ErrNotFound is returned when a user does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("user not found")

// Repository provides user persistence. Writes take the caller's queryer so
// they can run inside an ambient transaction alongside the audit trail.
type Repository struct{}

// NewRepository creates a new Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes a new user row.
func (r *Repository) Insert(ctx context.Context, q db.Queryer, u *User) error {
	query := `
		INSERT INTO users (id, household_id, email, first_name, last_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.ExecContext(ctx, query,
		u.ID, u.HouseholdID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by UUID, excluding soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, q db.Queryer, id string) (*User, error) {
	return r.getBy(ctx, q, "id = $1", id)
}

// GetByEmail retrieves a user by email, excluding soft-deleted rows.
func (r *Repository) GetByEmail(ctx context.Context, q db.Queryer, email string) (*User, error) {
	return r.getBy(ctx, q, "email = $1", email)
}

func (r *Repository) getBy(ctx context.Context, q db.Queryer, where string, arg any) (*User, error) {
	query := fmt.Sprintf(`
		SELECT id, household_id, email, first_name, last_name, password_hash, created_at, updated_at, deleted_at
		FROM users
		WHERE %s AND deleted_at IS NULL
	`, where)
	var u User
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.HouseholdID, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
