// Package idempotency lets clients safely retry write requests. A client
// sends an Idempotency-Key header with a POST; the first execution's response
// is cached under that key, and retries replay it instead of creating a
// second expense or income.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Key lifecycle statuses. Only StatusCompleted is written today;
// StatusProcessing is reserved for in-flight duplicate suppression.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

var (
	// ErrKeyNotFound is returned when an idempotency key is not found.
	ErrKeyNotFound = errors.New("idempotency key not found")

	// ErrKeyExists is returned when attempting to store a duplicate key.
	ErrKeyExists = errors.New("idempotency key already exists")

	// ErrInvalidKey is returned when the key is empty.
	ErrInvalidKey = errors.New("invalid idempotency key")

	// ErrKeyTooLong is returned when the key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length")
)

// MaxKeyLength is the maximum allowed length for an idempotency key.
const MaxKeyLength = 64

// Key is a stored idempotency key with its cached response.
type Key struct {
	Key                string    `json:"key"`
	Method             string    `json:"method"`
	Route              string    `json:"route"`
	CreatedAt          time.Time `json:"created_at"`
	ResponseHash       string    `json:"response_hash"`
	Status             string    `json:"status"`
	ResponseBody       string    `json:"response_body"`
	ResponseStatusCode int       `json:"response_status_code"`
}

// ValidateKey rejects empty keys and keys longer than MaxKeyLength.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// ComputeResponseHash returns the hex SHA256 of a response body, stored
// alongside the body so replayed responses can be integrity checked.
func ComputeResponseHash(responseBody string) string {
	hash := sha256.Sum256([]byte(responseBody))
	return hex.EncodeToString(hash[:])
}

// Repository defines methods for idempotency key persistence.
type Repository interface {
	// Get retrieves a key. Returns ErrKeyNotFound if it doesn't exist.
	Get(key string) (*Key, error)

	// Store saves a new key. Returns ErrKeyExists on duplicates.
	Store(record *Key) error

	// DeleteOlderThan removes keys older than the given duration and
	// returns how many were deleted.
	DeleteOlderThan(duration time.Duration) (int64, error)
}
