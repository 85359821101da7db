package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is a mutual-exclusion guard around a sync cycle, so two instances
// of the agent never walk the same mailbox window concurrently.
type Lease interface {
	// Acquire takes the lease; ok is false when another holder has it.
	Acquire(ctx context.Context) (ok bool, err error)
	Release(ctx context.Context) error
}

// releaseScript deletes the lease key only when this process still holds
// it, so a holder whose lease expired cannot release a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX plus a TTL. The TTL bounds how
// long a crashed holder blocks its successors.
type RedisLease struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// NewRedisLease creates a lease on the given key.
func NewRedisLease(rdb *redis.Client, key string, ttl time.Duration) *RedisLease {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLease{
		rdb:   rdb,
		key:   key,
		token: uuid.NewString(),
		ttl:   ttl,
	}
}

// Acquire takes the lease with SET NX.
func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring sync lease: %w", err)
	}
	return ok, nil
}

// Release gives the lease back if this process still holds it.
func (l *RedisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("releasing sync lease: %w", err)
	}
	return nil
}

// NopLease is a Lease for single-instance deployments without Redis.
type NopLease struct{}

func (NopLease) Acquire(context.Context) (bool, error) { return true, nil }
func (NopLease) Release(context.Context) error         { return nil }
