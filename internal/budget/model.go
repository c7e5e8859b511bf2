// Package budget provides the models for budgets and their monthly plans.
package budget

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/onnwee/homebooks/internal/audit"
)

// Budget represents one household budget for a calendar year.
type Budget struct {
	ID          string     `json:"id"`
	HouseholdID string     `json:"household_id"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	changes audit.ChangeSet
}

// New creates a Budget with a generated UUID and current timestamps.
func New(householdID, name string, year int) *Budget {
	now := time.Now().UTC()
	return &Budget{
		ID:          uuid.New().String(),
		HouseholdID: householdID,
		Name:        name,
		Year:        year,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetName updates the budget name, tracking the transition.
func (b *Budget) SetName(name string) {
	if name == b.Name {
		return
	}
	b.changes.Track("name", b.Name, name)
	b.Name = name
}

// Kind implements audit.Record.
func (b *Budget) Kind() string { return "budgets" }

// Identity implements audit.Record.
func (b *Budget) Identity() string { return b.ID }

// Attributes implements audit.Record.
func (b *Budget) Attributes() map[string]string {
	attrs := map[string]string{
		"id":           b.ID,
		"household_id": b.HouseholdID,
		"name":         b.Name,
		"year":         strconv.Itoa(b.Year),
		"created_at":   audit.FormatTime(b.CreatedAt),
		"updated_at":   audit.FormatTime(b.UpdatedAt),
	}
	if b.DeletedAt != nil {
		attrs["deleted_at"] = audit.FormatTime(*b.DeletedAt)
	}
	return attrs
}

// ChangedAttributes implements audit.Record.
func (b *Budget) ChangedAttributes() map[string]audit.FieldChange {
	return b.changes.Fields()
}

// MarkDeleted implements audit.SoftDeletable.
func (b *Budget) MarkDeleted(now time.Time) (string, string) {
	t := now.UTC()
	b.DeletedAt = &t
	return "deleted_at", audit.FormatTime(t)
}

// Save flushes the budget's current state inside the given transaction and
// clears the pending change set.
func (b *Budget) Save(ctx context.Context, tx audit.Tx) error {
	b.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE budgets
		SET name = $2, year = $3, updated_at = $4, deleted_at = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, b.ID, b.Name, b.Year, b.UpdatedAt, b.DeletedAt); err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	b.changes.Reset()
	return nil
}

// Month represents one month's plan within a budget. Its audit rows are
// keyed by budget_id via the policy's identity override, because months are
// addressed through their budget everywhere in the API. Months do not
// support soft deletion; removing one is a hard delete owned by the caller.
type Month struct {
	ID           string    `json:"id"`
	BudgetID     string    `json:"budget_id"`
	Month        int       `json:"month"`
	PlannedCents int64     `json:"planned_cents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	changes audit.ChangeSet
}

// NewMonth creates a Month with a generated UUID and current timestamps.
func NewMonth(budgetID string, month int, plannedCents int64) *Month {
	now := time.Now().UTC()
	return &Month{
		ID:           uuid.New().String(),
		BudgetID:     budgetID,
		Month:        month,
		PlannedCents: plannedCents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetPlannedCents updates the planned amount, tracking the transition.
func (m *Month) SetPlannedCents(cents int64) {
	if cents == m.PlannedCents {
		return
	}
	m.changes.Track("planned_cents", strconv.FormatInt(m.PlannedCents, 10), strconv.FormatInt(cents, 10))
	m.PlannedCents = cents
}

// Kind implements audit.Record.
func (m *Month) Kind() string { return "budget_months" }

// Identity implements audit.Record.
func (m *Month) Identity() string { return m.ID }

// Attributes implements audit.Record.
func (m *Month) Attributes() map[string]string {
	return map[string]string{
		"id":            m.ID,
		"budget_id":     m.BudgetID,
		"month":         strconv.Itoa(m.Month),
		"planned_cents": strconv.FormatInt(m.PlannedCents, 10),
		"created_at":    audit.FormatTime(m.CreatedAt),
		"updated_at":    audit.FormatTime(m.UpdatedAt),
	}
}

// ChangedAttributes implements audit.Record.
func (m *Month) ChangedAttributes() map[string]audit.FieldChange {
	return m.changes.Fields()
}

// Save flushes the month's current state inside the given transaction and
// clears the pending change set.
func (m *Month) Save(ctx context.Context, tx audit.Tx) error {
	m.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE budget_months
		SET month = $2, planned_cents = $3, updated_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, m.ID, m.Month, m.PlannedCents, m.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update budget month: %w", err)
	}
	m.changes.Reset()
	return nil
}
