package repository

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when a write does not fit in the backing store.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store reads and writes raw text blobs by key.
type Store interface {
	// Get returns the value stored under key. The boolean is false when the
	// key is absent, which is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
