package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DefaultCartTTL is the inactivity window after which cart and favorites
// rows become eligible for removal.
const DefaultCartTTL = 7 * 24 * time.Hour

// StartAbandonedCartCleaner periodically deletes the given keys when they
// have not been written for longer than retention.
func StartAbandonedCartCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	keys []string,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM kv_items
                     WHERE key = ANY($1)
                       AND updated_at < $2
                `, pq.Array(keys), cutoff)
				if err != nil {
					log.Error("failed to clean abandoned carts", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned abandoned carts", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
