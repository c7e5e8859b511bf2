// Package income provides the model and repository for household incomes.
package income

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/onnwee/homebooks/internal/audit"
)

const dateLayout = "2006-01-02"

// Income represents one received amount within a household.
type Income struct {
	ID          string     `json:"id"`
	HouseholdID string     `json:"household_id"`
	Source      string     `json:"source"`
	AmountCents int64      `json:"amount_cents"`
	ReceivedOn  time.Time  `json:"received_on"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	changes audit.ChangeSet
}

// New creates an Income with a generated UUID and current timestamps.
func New(householdID, source string, amountCents int64, receivedOn time.Time) *Income {
	now := time.Now().UTC()
	return &Income{
		ID:          uuid.New().String(),
		HouseholdID: householdID,
		Source:      source,
		AmountCents: amountCents,
		ReceivedOn:  receivedOn.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetSource updates the income source, tracking the transition.
func (i *Income) SetSource(source string) {
	if source == i.Source {
		return
	}
	i.changes.Track("source", i.Source, source)
	i.Source = source
}

// SetAmountCents updates the amount, tracking the transition.
func (i *Income) SetAmountCents(cents int64) {
	if cents == i.AmountCents {
		return
	}
	i.changes.Track("amount_cents", strconv.FormatInt(i.AmountCents, 10), strconv.FormatInt(cents, 10))
	i.AmountCents = cents
}

// Kind implements audit.Record.
func (i *Income) Kind() string { return "incomes" }

// Identity implements audit.Record.
func (i *Income) Identity() string { return i.ID }

// Attributes implements audit.Record.
func (i *Income) Attributes() map[string]string {
	attrs := map[string]string{
		"id":           i.ID,
		"household_id": i.HouseholdID,
		"source":       i.Source,
		"amount_cents": strconv.FormatInt(i.AmountCents, 10),
		"received_on":  i.ReceivedOn.Format(dateLayout),
		"created_at":   audit.FormatTime(i.CreatedAt),
		"updated_at":   audit.FormatTime(i.UpdatedAt),
	}
	if i.DeletedAt != nil {
		attrs["deleted_at"] = audit.FormatTime(*i.DeletedAt)
	}
	return attrs
}

// ChangedAttributes implements audit.Record.
func (i *Income) ChangedAttributes() map[string]audit.FieldChange {
	return i.changes.Fields()
}

// MarkDeleted implements audit.SoftDeletable.
func (i *Income) MarkDeleted(now time.Time) (string, string) {
	t := now.UTC()
	i.DeletedAt = &t
	return "deleted_at", audit.FormatTime(t)
}

// Save flushes the income's current state inside the given transaction and
// clears the pending change set.
func (i *Income) Save(ctx context.Context, tx audit.Tx) error {
	i.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE incomes
		SET source = $2, amount_cents = $3, received_on = $4, updated_at = $5, deleted_at = $6
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query,
		i.ID, i.Source, i.AmountCents, i.ReceivedOn, i.UpdatedAt, i.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to update income: %w", err)
	}
	i.changes.Reset()
	return nil
}
