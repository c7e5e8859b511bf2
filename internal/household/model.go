// Package household provides the model and repository for households, the
// root entity every budget, expense, and income belongs to.
package household

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onnwee/homebooks/internal/audit"
)

// Household represents one bookkeeping household.
type Household struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	changes audit.ChangeSet
}

// New creates a Household with a generated UUID and current timestamps.
func New(name string) *Household {
	now := time.Now().UTC()
	return &Household{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetName updates the household name, tracking the transition.
func (h *Household) SetName(name string) {
	if name == h.Name {
		return
	}
	h.changes.Track("name", h.Name, name)
	h.Name = name
}

// Kind implements audit.Record.
func (h *Household) Kind() string { return "households" }

// Identity implements audit.Record.
func (h *Household) Identity() string { return h.ID }

// Attributes implements audit.Record.
func (h *Household) Attributes() map[string]string {
	attrs := map[string]string{
		"id":         h.ID,
		"name":       h.Name,
		"created_at": audit.FormatTime(h.CreatedAt),
		"updated_at": audit.FormatTime(h.UpdatedAt),
	}
	if h.DeletedAt != nil {
		attrs["deleted_at"] = audit.FormatTime(*h.DeletedAt)
	}
	return attrs
}

// ChangedAttributes implements audit.Record.
func (h *Household) ChangedAttributes() map[string]audit.FieldChange {
	return h.changes.Fields()
}

// MarkDeleted implements audit.SoftDeletable.
func (h *Household) MarkDeleted(now time.Time) (string, string) {
	t := now.UTC()
	h.DeletedAt = &t
	return "deleted_at", audit.FormatTime(t)
}

// Save flushes the household's current state inside the given transaction
// and clears the pending change set.
func (h *Household) Save(ctx context.Context, tx audit.Tx) error {
	h.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE households
		SET name = $2, updated_at = $3, deleted_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, h.ID, h.Name, h.UpdatedAt, h.DeletedAt); err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}
	h.changes.Reset()
	return nil
}
