// Package storage holds processed attendance photos.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidKey = errors.New("storage: invalid object key")

// ObjectStore supports write and time-limited signed reads.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
