// Package service holds the storefront state containers: the session store
// and the cart/favorites store. Both keep their state in memory and mirror
// it to a storage.Adapter on every mutation.
package service

import (
	"context"
	"errors"

	"github.com/atinyakov/GophShop/internal/client/storage"
	"github.com/atinyakov/GophShop/internal/metrics"
	"go.uber.org/zap"
)

// ownKeys are the keys no store evicts when recovering from a full backend.
var ownKeys = []string{storage.KeyCart, storage.KeyFavorites, storage.KeySession, storage.KeyUsers}

// persist writes v under key. On ErrQuotaExceeded it evicts every key the
// stores do not own and retries once. Failures are logged, not returned;
// the caller's in-memory state stays authoritative until the next write.
func persist(ctx context.Context, a *storage.Adapter, log *zap.Logger, key string, v any) bool {
	err := a.Write(ctx, key, v)
	if errors.Is(err, storage.ErrQuotaExceeded) {
		log.Warn("local storage quota exceeded, evicting unrelated data", zap.String("key", key))
		if evictErr := a.Evict(ctx, ownKeys...); evictErr != nil {
			log.Error("failed to evict local storage", zap.Error(evictErr))
		} else {
			err = a.Write(ctx, key, v)
		}
	}
	if err != nil {
		metrics.PersistFailures.WithLabelValues(key).Inc()
		log.Error("failed to persist state", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// restore decodes the value under key into dst. It reports true when a value
// was decoded. A malformed value is removed and reported as absent. A
// backend failure is returned; the caller must not write key until a later
// restore succeeds, or it would overwrite data it never saw.
func restore(ctx context.Context, a *storage.Adapter, log *zap.Logger, key string, dst any) (bool, error) {
	ok, err := a.Read(ctx, key, dst)
	if err == nil {
		return ok, nil
	}
	if !errors.Is(err, storage.ErrMalformed) {
		log.Error("failed to read local storage", zap.String("key", key), zap.Error(err))
		return false, err
	}
	log.Warn("discarding unreadable value", zap.String("key", key), zap.Error(err))
	if rmErr := a.Remove(ctx, key); rmErr != nil {
		log.Error("failed to remove unreadable value", zap.String("key", key), zap.Error(rmErr))
	}
	return false, nil
}
