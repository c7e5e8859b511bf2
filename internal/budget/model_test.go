package budget

import (
	"testing"

	"github.com/onnwee/homebooks/internal/audit"
)

func TestNewBudget(t *testing.T) {
	b := New("h1", "Groceries 2026", 2026)

	if b.ID == "" {
		t.Error("New did not assign an ID")
	}
	if b.Year != 2026 {
		t.Errorf("year = %d, want 2026", b.Year)
	}
	if _, ok := any(b).(audit.SoftDeletable); !ok {
		t.Error("Budget must be soft-deletable")
	}
}

func TestBudgetMonthIsNotSoftDeletable(t *testing.T) {
	var rec audit.Record = NewMonth("b1", 3, 120000)
	if _, ok := rec.(audit.SoftDeletable); ok {
		t.Error("budget months must not support soft deletion")
	}
}

func TestMonthSetPlannedCents(t *testing.T) {
	m := NewMonth("b1", 3, 100000)
	m.SetPlannedCents(120000)

	changed := m.ChangedAttributes()
	fc, ok := changed["planned_cents"]
	if !ok {
		t.Fatalf("planned_cents change not tracked: %v", changed)
	}
	if fc.Old != "100000" || fc.New != "120000" {
		t.Errorf("change = %+v, want {100000 120000}", fc)
	}
}

func TestMonthAuditsUnderBudgetID(t *testing.T) {
	m := NewMonth("b7", 3, 100000)

	policy := audit.DefaultPolicy()
	identityAttr := policy.IdentityAttribute(m.Kind())
	if identityAttr != "budget_id" {
		t.Fatalf("identity attribute = %q, want budget_id", identityAttr)
	}
	if got := m.Attributes()[identityAttr]; got != "b7" {
		t.Errorf("identity value = %q, want b7", got)
	}
}

func TestMonthNewDraftsExcludeBudgetID(t *testing.T) {
	// budget_id keys the audit rows for months, so it must not also show up
	// as a change row of its own.
	m := NewMonth("b7", 3, 100000)

	for _, d := range audit.RecordNew(audit.DefaultPolicy(), m) {
		if d.Attribute == "budget_id" {
			t.Error("identity attribute appeared in drafts")
		}
	}
}
