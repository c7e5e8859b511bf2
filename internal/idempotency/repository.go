package idempotency

import (
	"sync"
	"time"
)

// InMemoryRepository implements Repository with in-memory storage. Cached
// responses only need to outlive a client's retry window, so process-local
// storage is sufficient.
type InMemoryRepository struct {
	mu   sync.RWMutex
	keys map[string]*Key
}

// NewInMemoryRepository creates a new in-memory idempotency key repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		keys: make(map[string]*Key),
	}
}

// Get retrieves an idempotency key by its key value.
func (r *InMemoryRepository) Get(key string) (*Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.keys[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return copyKey(record), nil
}

// Store saves a new idempotency key.
func (r *InMemoryRepository) Store(record *Key) error {
	if err := ValidateKey(record.Key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.keys[record.Key]; exists {
		return ErrKeyExists
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	r.keys[record.Key] = copyKey(record)
	return nil
}

// DeleteOlderThan removes keys older than the specified duration.
func (r *InMemoryRepository) DeleteOlderThan(duration time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-duration)
	var deleted int64

	for key, record := range r.keys {
		if record.CreatedAt.Before(cutoff) {
			delete(r.keys, key)
			deleted++
		}
	}

	return deleted, nil
}

// copyKey guards stored records against external mutation.
func copyKey(record *Key) *Key {
	if record == nil {
		return nil
	}
	copied := *record
	return &copied
}
