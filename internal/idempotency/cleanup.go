package idempotency

import (
	"log/slog"
	"time"
)

// DefaultExpiry is how long cached responses are kept. A day covers any
// reasonable client retry window.
const DefaultExpiry = 24 * time.Hour

// CleanupOldKeys removes idempotency keys older than the given expiry and
// returns how many were deleted.
func CleanupOldKeys(repo Repository, expiry time.Duration) (int64, error) {
	deleted, err := repo.DeleteOlderThan(expiry)
	if err != nil {
		slog.Error("failed to clean up old idempotency keys", "error", err)
		return 0, err
	}

	if deleted > 0 {
		slog.Info("cleaned up old idempotency keys", "deleted", deleted, "older_than", expiry)
	}

	return deleted, nil
}
