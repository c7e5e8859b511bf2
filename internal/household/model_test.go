package household

import (
	"testing"
	"time"

	"github.com/onnwee/homebooks/internal/audit"
)

func TestNewHousehold(t *testing.T) {
	h := New("Smith")

	if h.ID == "" {
		t.Error("New did not assign an ID")
	}
	if h.Name != "Smith" {
		t.Errorf("name = %q, want Smith", h.Name)
	}
	if h.CreatedAt.IsZero() || h.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if len(h.ChangedAttributes()) != 0 {
		t.Errorf("fresh household has pending changes: %v", h.ChangedAttributes())
	}
}

func TestHouseholdSetNameTracksChange(t *testing.T) {
	h := New("Smith")
	h.SetName("Smith-Jones")

	changed := h.ChangedAttributes()
	fc, ok := changed["name"]
	if !ok {
		t.Fatalf("name change not tracked: %v", changed)
	}
	if fc.Old != "Smith" || fc.New != "Smith-Jones" {
		t.Errorf("change = %+v, want {Smith Smith-Jones}", fc)
	}
}

func TestHouseholdSetNameRevert(t *testing.T) {
	h := New("Smith")
	h.SetName("Smith-Jones")
	h.SetName("Smith")

	if changed := h.ChangedAttributes(); len(changed) != 0 {
		t.Errorf("reverted rename still tracked: %v", changed)
	}
}

func TestHouseholdAttributes(t *testing.T) {
	h := New("Smith")

	attrs := h.Attributes()
	if attrs["id"] != h.ID {
		t.Errorf("id attribute = %q, want %q", attrs["id"], h.ID)
	}
	if attrs["name"] != "Smith" {
		t.Errorf("name attribute = %q, want Smith", attrs["name"])
	}
	if _, ok := attrs["deleted_at"]; ok {
		t.Error("live household exposes deleted_at")
	}
}

func TestHouseholdMarkDeleted(t *testing.T) {
	h := New("Smith")
	now := time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)

	attr, value := h.MarkDeleted(now)
	if attr != "deleted_at" {
		t.Errorf("marker attribute = %q, want deleted_at", attr)
	}
	if value != "2026-02-03T10:30:00Z" {
		t.Errorf("marker value = %q", value)
	}
	if h.DeletedAt == nil || !h.DeletedAt.Equal(now) {
		t.Errorf("DeletedAt = %v, want %v", h.DeletedAt, now)
	}
	if h.Attributes()["deleted_at"] != value {
		t.Error("attributes do not expose the deletion marker")
	}
}

func TestHouseholdImplementsSoftDeletable(t *testing.T) {
	var rec audit.Record = New("Smith")
	if _, ok := rec.(audit.SoftDeletable); !ok {
		t.Error("Household must be soft-deletable")
	}
}
