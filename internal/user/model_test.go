package user

import (
	"testing"

	"github.com/onnwee/homebooks/internal/audit"
)

func TestNewUser(t *testing.T) {
	u := New("h1", "ada@example.com", "Ada", "Lovelace", "bcrypt-hash")

	if u.ID == "" {
		t.Error("New did not assign an ID")
	}
	if u.HouseholdID != "h1" {
		t.Errorf("household = %q, want h1", u.HouseholdID)
	}
	if len(u.ChangedAttributes()) != 0 {
		t.Errorf("fresh user has pending changes: %v", u.ChangedAttributes())
	}
}

func TestUserSettersTrackChanges(t *testing.T) {
	u := New("h1", "ada@example.com", "Ada", "Lovelace", "hash1")
	u.SetEmail("ada@newdomain.com")
	u.SetFirstName("Augusta")

	changed := u.ChangedAttributes()
	if len(changed) != 2 {
		t.Fatalf("expected 2 tracked changes, got %v", changed)
	}
	if fc := changed["email"]; fc.Old != "ada@example.com" || fc.New != "ada@newdomain.com" {
		t.Errorf("email change = %+v", fc)
	}
	if fc := changed["first_name"]; fc.Old != "Ada" || fc.New != "Augusta" {
		t.Errorf("first_name change = %+v", fc)
	}
}

func TestUserPasswordHashInAttributes(t *testing.T) {
	// The hash appears in Attributes under the suppressed attribute name;
	// keeping it out of the trail is the policy's job, not the model's.
	u := New("h1", "ada@example.com", "Ada", "Lovelace", "bcrypt-hash")

	if got := u.Attributes()["password_hash"]; got != "bcrypt-hash" {
		t.Errorf("password_hash attribute = %q", got)
	}

	drafts := audit.RecordNew(audit.DefaultPolicy(), u)
	for _, d := range drafts {
		if d.Attribute == "password_hash" {
			t.Error("password_hash leaked into audit drafts")
		}
	}
}

func TestUserPasswordChangeIsSuppressed(t *testing.T) {
	u := New("h1", "ada@example.com", "Ada", "Lovelace", "hash1")
	u.SetPasswordHash("hash2")

	drafts := audit.RecordUpdate(audit.DefaultPolicy(), u)
	if len(drafts) != 0 {
		t.Errorf("password rotation produced audit drafts: %v", drafts)
	}
	// The mutation itself is still pending for Save.
	if _, ok := u.ChangedAttributes()["password_hash"]; !ok {
		t.Error("password_hash mutation not tracked for persistence")
	}
}
