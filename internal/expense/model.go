// Package expense provides the model and repository for expenses, including
// their vendor, category, and fund references.
package expense

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/onnwee/homebooks/internal/audit"
)

// dateLayout is how spent_on dates are stored in audit values.
const dateLayout = "2006-01-02"

// Expense represents one spent amount within a household.
type Expense struct {
	ID          string     `json:"id"`
	HouseholdID string     `json:"household_id"`
	VendorID    *string    `json:"vendor_id,omitempty"`
	CategoryID  *string    `json:"category_id,omitempty"`
	FundID      *string    `json:"fund_id,omitempty"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	SpentOn     time.Time  `json:"spent_on"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	changes audit.ChangeSet
}

// New creates an Expense with a generated UUID and current timestamps.
func New(householdID, description string, amountCents int64, spentOn time.Time) *Expense {
	now := time.Now().UTC()
	return &Expense{
		ID:          uuid.New().String(),
		HouseholdID: householdID,
		Description: description,
		AmountCents: amountCents,
		SpentOn:     spentOn.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetDescription updates the description, tracking the transition.
func (e *Expense) SetDescription(description string) {
	if description == e.Description {
		return
	}
	e.changes.Track("description", e.Description, description)
	e.Description = description
}

// SetAmountCents updates the amount, tracking the transition.
func (e *Expense) SetAmountCents(cents int64) {
	if cents == e.AmountCents {
		return
	}
	e.changes.Track("amount_cents", strconv.FormatInt(e.AmountCents, 10), strconv.FormatInt(cents, 10))
	e.AmountCents = cents
}

// SetSpentOn updates the spend date, tracking the transition.
func (e *Expense) SetSpentOn(spentOn time.Time) {
	spentOn = spentOn.UTC()
	if spentOn.Equal(e.SpentOn) {
		return
	}
	e.changes.Track("spent_on", e.SpentOn.Format(dateLayout), spentOn.Format(dateLayout))
	e.SpentOn = spentOn
}

// SetVendorID updates the vendor reference, tracking the transition.
func (e *Expense) SetVendorID(vendorID *string) {
	e.setRef("vendor_id", &e.VendorID, vendorID)
}

// SetCategoryID updates the category reference, tracking the transition.
func (e *Expense) SetCategoryID(categoryID *string) {
	e.setRef("category_id", &e.CategoryID, categoryID)
}

// SetFundID updates the fund reference, tracking the transition.
func (e *Expense) SetFundID(fundID *string) {
	e.setRef("fund_id", &e.FundID, fundID)
}

func (e *Expense) setRef(attribute string, field **string, value *string) {
	if deref(*field) == deref(value) {
		return
	}
	e.changes.Track(attribute, deref(*field), deref(value))
	*field = value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Kind implements audit.Record.
func (e *Expense) Kind() string { return "expenses" }

// Identity implements audit.Record.
func (e *Expense) Identity() string { return e.ID }

// Attributes implements audit.Record.
func (e *Expense) Attributes() map[string]string {
	attrs := map[string]string{
		"id":           e.ID,
		"household_id": e.HouseholdID,
		"description":  e.Description,
		"amount_cents": strconv.FormatInt(e.AmountCents, 10),
		"spent_on":     e.SpentOn.Format(dateLayout),
		"created_at":   audit.FormatTime(e.CreatedAt),
		"updated_at":   audit.FormatTime(e.UpdatedAt),
	}
	if e.VendorID != nil {
		attrs["vendor_id"] = *e.VendorID
	}
	if e.CategoryID != nil {
		attrs["category_id"] = *e.CategoryID
	}
	if e.FundID != nil {
		attrs["fund_id"] = *e.FundID
	}
	if e.DeletedAt != nil {
		attrs["deleted_at"] = audit.FormatTime(*e.DeletedAt)
	}
	return attrs
}

// ChangedAttributes implements audit.Record.
func (e *Expense) ChangedAttributes() map[string]audit.FieldChange {
	return e.changes.Fields()
}

// MarkDeleted implements audit.SoftDeletable.
func (e *Expense) MarkDeleted(now time.Time) (string, string) {
	t := now.UTC()
	e.DeletedAt = &t
	return "deleted_at", audit.FormatTime(t)
}

// Save flushes the expense's current state inside the given transaction and
// clears the pending change set.
func (e *Expense) Save(ctx context.Context, tx audit.Tx) error {
	e.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE expenses
		SET vendor_id = $2, category_id = $3, fund_id = $4, description = $5,
		    amount_cents = $6, spent_on = $7, updated_at = $8, deleted_at = $9
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query,
		e.ID, e.VendorID, e.CategoryID, e.FundID, e.Description,
		e.AmountCents, e.SpentOn, e.UpdatedAt, e.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	e.changes.Reset()
	return nil
}
