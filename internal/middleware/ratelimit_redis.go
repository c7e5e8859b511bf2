package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore using Redis, so limits are
// shared across API instances. Uses a fixed window counter: INCR on a
// per-key counter whose TTL is set on first increment.
//
// Fail-open: if Redis is unavailable the request is allowed, since dropping
// traffic on a limiter outage is worse than briefly exceeding limits.
type RedisRateLimitStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client: client,
		logger: slog.Default(),
	}
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		s.logger.Warn("rate limit redis incr failed, allowing request",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return true, 0
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			s.logger.Warn("rate limit redis expire failed",
				slog.String("error", err.Error()),
				slog.String("key", key))
		}
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		return false, int(config.WindowDuration / time.Second)
	}
	return false, int(ttl / time.Second)
}
