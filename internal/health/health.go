// Package health implements dependency probes for the readiness endpoint.
package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkTimeout bounds each probe so a hung dependency cannot stall the
// readiness endpoint.
const checkTimeout = 2 * time.Second

// DBChecker probes the Postgres pool.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a database probe.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// RedisChecker probes the Redis rate-limit backend.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a Redis probe.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends a PING.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
