package driven

import (
	"context"
	"time"
)

// CacheStore is the key-value backend behind the content cache (memory, Redis, PostgreSQL).
// Values are opaque bytes; freshness is decided by the caller.
type CacheStore interface {
	// Get returns the stored bytes, or domain.ErrNotFound on a miss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key; ttl bounds how long the backend keeps it
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix and returns how many were removed
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Ping checks if the backend is healthy
	Ping(ctx context.Context) error
}
