package idempotency

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "valid", key: "retry-abc-123"},
		{name: "at max length", key: strings.Repeat("k", MaxKeyLength)},
		{name: "empty", key: "", wantErr: ErrInvalidKey},
		{name: "too long", key: strings.Repeat("k", MaxKeyLength+1), wantErr: ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComputeResponseHashIsStable(t *testing.T) {
	a := ComputeResponseHash(`{"expense":{"id":"e1"}}`)
	b := ComputeResponseHash(`{"expense":{"id":"e1"}}`)
	if a != b {
		t.Errorf("same body produced different hashes: %q vs %q", a, b)
	}
	if c := ComputeResponseHash(`{"expense":{"id":"e2"}}`); c == a {
		t.Error("different bodies produced the same hash")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestRepositoryStoreAndGet(t *testing.T) {
	repo := NewInMemoryRepository()

	record := &Key{
		Key:                "retry-1",
		Method:             "POST",
		Route:              "/expenses",
		Status:             StatusCompleted,
		ResponseBody:       `{"expense":{"id":"e1"}}`,
		ResponseStatusCode: 201,
	}
	if err := repo.Store(record); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, err := repo.Get("retry-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ResponseStatusCode != 201 || got.ResponseBody != record.ResponseBody {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be filled on store")
	}

	// Stored records must be isolated from caller mutation.
	got.ResponseBody = "tampered"
	again, err := repo.Get("retry-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if again.ResponseBody == "tampered" {
		t.Error("repository returned a shared record")
	}
}

func TestRepositoryDuplicateKey(t *testing.T) {
	repo := NewInMemoryRepository()
	record := &Key{Key: "retry-1", Status: StatusCompleted}
	if err := repo.Store(record); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := repo.Store(record); !errors.Is(err, ErrKeyExists) {
		t.Errorf("error = %v, want ErrKeyExists", err)
	}
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.Get("nope"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("error = %v, want ErrKeyNotFound", err)
	}
}

func TestRepositoryRejectsInvalidKey(t *testing.T) {
	repo := NewInMemoryRepository()
	if err := repo.Store(&Key{Key: ""}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("error = %v, want ErrInvalidKey", err)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewInMemoryRepository()

	old := &Key{Key: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &Key{Key: "fresh"}
	if err := repo.Store(old); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := repo.Store(fresh); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	deleted, err := repo.DeleteOlderThan(DefaultExpiry)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := repo.Get("old"); !errors.Is(err, ErrKeyNotFound) {
		t.Error("old key should be gone")
	}
	if _, err := repo.Get("fresh"); err != nil {
		t.Errorf("fresh key should survive: %v", err)
	}
}

func TestCleanupOldKeys(t *testing.T) {
	repo := NewInMemoryRepository()
	if err := repo.Store(&Key{Key: "old", CreatedAt: time.Now().Add(-2 * DefaultExpiry)}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	deleted, err := CleanupOldKeys(repo, DefaultExpiry)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
