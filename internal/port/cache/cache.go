// Package cache defines the lookup-cache port. DealDesk uses it to keep
// directory answers (clients, users) close to the board endpoints, which
// re-request the same handful of ids on every refresh.
package cache

import (
	"context"
	"time"
)

// Cache stores raw encoded values under string keys. Entries expire after
// their TTL; a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
