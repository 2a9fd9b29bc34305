package cache

import (
	"context"
	"time"
)

// CounterOps defines the key/counter operations used by fixed-window limiters.
type CounterOps interface {
	// SetNX sets the value only if the key does not exist (atomic operation)
	// Returns true if the key was set, false if it already existed
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Incr atomically increments the integer stored at key
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on the key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL returns the remaining time to live; negative when no TTL is set
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Cache is the subset of the shared cache the service depends on.
type Cache interface {
	CounterOps

	// Ping verifies the cache connection is alive
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}
