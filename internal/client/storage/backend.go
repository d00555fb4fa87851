package storage

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned when a backend cannot hold a write.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrMalformed is returned by Read when a stored value is not valid JSON
	// for the requested type.
	ErrMalformed = errors.New("malformed stored value")
)

// Backend is a string key-value store in the manner of browser local storage.
type Backend interface {
	// GetItem returns the raw value under key and whether it exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)
	// Clear deletes every key.
	Clear(ctx context.Context) error
}

// BatchRemover is implemented by backends that delete many keys at once.
type BatchRemover interface {
	RemoveItems(ctx context.Context, keys []string) error
}
