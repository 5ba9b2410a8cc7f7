// Package cache persists one snapshot per region and classifies it by age.
package cache

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a KV when the key has no value.
	ErrNotFound = errors.New("cache key not found")

	// ErrQuotaExceeded is returned by a KV when a write would exceed its storage budget.
	ErrQuotaExceeded = errors.New("cache quota exceeded")
)

// KV is the byte-level key-value backend behind a Store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
