package ports

import (
	"context"
	"time"
)

// Cache is the string/list K/V store component A: get/set/list ops, atomic
// increment/decrement, and pattern-based delete via scan.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes every key matching any of the given glob patterns via
	// scan-and-delete. A literal key with no glob metacharacters is deleted
	// directly.
	Delete(ctx context.Context, patterns ...string) error

	// SetList appends values onto the list at key (LPUSH), not a replace.
	SetList(ctx context.Context, key string, ttl time.Duration, values ...string) error
	GetList(ctx context.Context, key string) ([]string, error)

	// Discard removes every occurrence of value from the list at key.
	Discard(ctx context.Context, key, value string) error

	Exists(ctx context.Context, pattern string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)

	Increment(ctx context.Context, key string, n int64) (int64, error)
	Decrement(ctx context.Context, key string, n int64) (int64, error)

	Clear(ctx context.Context) error
	Close() error
}
