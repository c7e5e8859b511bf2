// Package user provides the model and repository for household members.
package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onnwee/homebooks/internal/audit"
)

// User represents one member of a household. The credential hash is carried
// in Attributes under its column name and relied on being suppressed by the
// audit policy; it must never reach an audit_changes row.
type User struct {
	ID           string     `json:"id"`
	HouseholdID  string     `json:"household_id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	changes audit.ChangeSet
}

// New creates a User with a generated UUID and current timestamps.
func New(householdID, email, firstName, lastName, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New().String(),
		HouseholdID:  householdID,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetEmail updates the email, tracking the transition.
func (u *User) SetEmail(email string) {
	if email == u.Email {
		return
	}
	u.changes.Track("email", u.Email, email)
	u.Email = email
}

// SetFirstName updates the first name, tracking the transition.
func (u *User) SetFirstName(name string) {
	if name == u.FirstName {
		return
	}
	u.changes.Track("first_name", u.FirstName, name)
	u.FirstName = name
}

// SetLastName updates the last name, tracking the transition.
func (u *User) SetLastName(name string) {
	if name == u.LastName {
		return
	}
	u.changes.Track("last_name", u.LastName, name)
	u.LastName = name
}

// SetPasswordHash updates the credential hash, tracking the transition. The
// tracked values are suppressed by the audit policy before any row is
// written.
func (u *User) SetPasswordHash(hash string) {
	if hash == u.PasswordHash {
		return
	}
	u.changes.Track("password_hash", u.PasswordHash, hash)
	u.PasswordHash = hash
}

// Kind implements audit.Record.
func (u *User) Kind() string { return "users" }

// Identity implements audit.Record.
func (u *User) Identity() string { return u.ID }

// Attributes implements audit.Record.
func (u *User) Attributes() map[string]string {
	attrs := map[string]string{
		"id":            u.ID,
		"household_id":  u.HouseholdID,
		"email":         u.Email,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"password_hash": u.PasswordHash,
		"created_at":    audit.FormatTime(u.CreatedAt),
		"updated_at":    audit.FormatTime(u.UpdatedAt),
	}
	if u.DeletedAt != nil {
		attrs["deleted_at"] = audit.FormatTime(*u.DeletedAt)
	}
	return attrs
}

// ChangedAttributes implements audit.Record.
func (u *User) ChangedAttributes() map[string]audit.FieldChange {
	return u.changes.Fields()
}

// MarkDeleted implements audit.SoftDeletable.
func (u *User) MarkDeleted(now time.Time) (string, string) {
	t := now.UTC()
	u.DeletedAt = &t
	return "deleted_at", audit.FormatTime(t)
}

// Save flushes the user's current state inside the given transaction and
// clears the pending change set.
func (u *User) Save(ctx context.Context, tx audit.Tx) error {
	u.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, password_hash = $5,
		    updated_at = $6, deleted_at = $7
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.UpdatedAt, u.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	u.changes.Reset()
	return nil
}
