// Package app wires configuration into the storage and state containers
// shared by the server and the interactive client.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/GophShop/internal/catalog"
	"github.com/atinyakov/GophShop/internal/client/storage"
	"github.com/atinyakov/GophShop/internal/config"
	"github.com/atinyakov/GophShop/internal/db"
	"github.com/atinyakov/GophShop/internal/repository"
	"github.com/atinyakov/GophShop/internal/service"
	"go.uber.org/zap"
)

// cleanInterval is how often abandoned cart rows are swept.
const cleanInterval = time.Hour

// Stores bundles the state containers built from one storage backend.
type Stores struct {
	Adapter  *storage.Adapter
	Sessions *service.SessionStore
	Carts    *service.CartStore
	Catalog  *catalog.Client

	close func() error
}

// Close releases the storage backend.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenBackend builds the backend selected by opts. The postgres backend
// also starts the abandoned cart cleaner, which runs until ctx is done.
func OpenBackend(ctx context.Context, opts *config.Options, log *zap.Logger) (storage.Backend, func() error, error) {
	switch opts.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryBackend(opts.StorageQuota), nil, nil
	case config.BackendFile:
		fb, err := storage.OpenFile(opts.StoragePath, opts.StorageQuota)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage file: %w", err)
		}
		return fb, nil, nil
	case config.BackendPostgres:
		pg, err := db.InitPostgres(opts.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		db.StartAbandonedCartCleaner(ctx, pg, cleanInterval, db.DefaultCartTTL,
			[]string{storage.KeyCart, storage.KeyFavorites}, log)
		return repository.NewPostgresKVRepository(pg, opts.StorageQuota), pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.StorageBackend)
	}
}

// Open builds the backend, the stores on top of it and the catalog client.
func Open(ctx context.Context, opts *config.Options, log *zap.Logger) (*Stores, error) {
	backend, closeFn, err := OpenBackend(ctx, opts, log)
	if err != nil {
		return nil, err
	}
	adapter := storage.NewAdapter(backend)
	log.Info("storage ready", zap.String("backend", opts.StorageBackend))

	return &Stores{
		Adapter:  adapter,
		Sessions: service.NewSessionStore(ctx, adapter, log),
		Carts:    service.NewCartStore(ctx, adapter, log),
		Catalog: catalog.New(opts.CatalogURL,
			catalog.WithCache(256, opts.CatalogCacheTTL),
			catalog.WithLogger(log),
		),
		close: closeFn,
	}, nil
}
