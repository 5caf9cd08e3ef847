// Package kv is the fast atomic key-value store behind tap debouncing,
// channel rate limits and the card cache.
package kv

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("kv: key not found")

// Store must implement SetNX and IncrWithExpiry atomically; callers rely on
// them for cross-request coordination.
type Store interface {
	// SetNX sets key only if it does not exist. It reports whether the key was set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// IncrWithExpiry increments key and sets ttl when the counter is created.
	IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
