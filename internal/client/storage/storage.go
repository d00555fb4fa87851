// Package storage is the persistence boundary for local storefront state.
// An Adapter encodes values as JSON and keeps them in a string key-value
// Backend.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys under which the storefront keeps its state.
const (
	KeyCart      = "CartItems"
	KeyFavorites = "FavoriteItems"
	KeySession   = "user"
	KeyUsers     = "users"
)

// Adapter reads and writes JSON values in a Backend. It holds no state of its own.
type Adapter struct {
	backend Backend
}

// NewAdapter wraps backend.
func NewAdapter(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Read decodes the value under key into dst. It reports false with a nil
// error when the key is absent, and false with ErrMalformed when the stored
// value cannot be decoded.
func (a *Adapter) Read(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := a.backend.GetItem(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrMalformed, key, err)
	}
	return true, nil
}

// Write encodes v and stores it under key.
func (a *Adapter) Write(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := a.backend.SetItem(ctx, key, string(b)); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.backend.RemoveItem(ctx, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys.
func (a *Adapter) Keys(ctx context.Context) ([]string, error) {
	return a.backend.Keys(ctx)
}

// Clear deletes everything.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.backend.Clear(ctx)
}

// Evict removes every key not listed in keep. It is the recovery path
// after ErrQuotaExceeded.
func (a *Adapter) Evict(ctx context.Context, keep ...string) error {
	keys, err := a.backend.Keys(ctx)
	if err != nil {
		return fmt.Errorf("evict: %w", err)
	}
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	var drop []string
	for _, k := range keys {
		if !kept[k] {
			drop = append(drop, k)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	if br, ok := a.backend.(BatchRemover); ok {
		if err := br.RemoveItems(ctx, drop); err != nil {
			return fmt.Errorf("evict: %w", err)
		}
		return nil
	}
	for _, k := range drop {
		if err := a.backend.RemoveItem(ctx, k); err != nil {
			return fmt.Errorf("evict %q: %w", k, err)
		}
	}
	return nil
}
