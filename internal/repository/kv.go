// Package repository provides a PostgreSQL implementation of the storage
// backend, so several shells can share one storefront state.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GophShop/internal/client/storage"
	"github.com/lib/pq"
)

const upsertItem = `
	INSERT INTO kv_items (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
`

// PostgresKVRepository stores items as rows of kv_items.
type PostgresKVRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Quota caps the summed byte length of all keys and values, the same
	// measure the memory backend uses. 0 disables the cap.
	Quota int
}

// NewPostgresKVRepository creates a repository on db.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresKVRepository(db *sql.DB, quota int) *PostgresKVRepository {
	return &PostgresKVRepository{DB: db, Quota: quota}
}

// GetItem returns the value stored under key.
func (r *PostgresKVRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM kv_items WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("GetItem: %w", err)
	}
	return value, true, nil
}

// SetItem upserts value under key. A write that would take the table over
// Quota is rejected with storage.ErrQuotaExceeded and stores nothing.
func (r *PostgresKVRepository) SetItem(ctx context.Context, key, value string) error {
	if r.Quota <= 0 {
		if _, err := r.DB.ExecContext(ctx, upsertItem, key, value); err != nil {
			return fmt.Errorf("SetItem: %w", err)
		}
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var used int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(octet_length(key) + octet_length(value)), 0)
		  FROM kv_items
		 WHERE key <> $1
	`, key).Scan(&used)
	if err != nil {
		return fmt.Errorf("measure usage: %w", err)
	}
	if used+len(key)+len(value) > r.Quota {
		return storage.ErrQuotaExceeded
	}

	if _, err := tx.ExecContext(ctx, upsertItem, key, value); err != nil {
		return fmt.Errorf("SetItem: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RemoveItem deletes key.
func (r *PostgresKVRepository) RemoveItem(ctx context.Context, key string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM kv_items WHERE key = $1`, key); err != nil {
		return fmt.Errorf("RemoveItem: %w", err)
	}
	return nil
}

// Keys lists every key in key order.
func (r *PostgresKVRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key FROM kv_items ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("Keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear deletes every row.
func (r *PostgresKVRepository) Clear(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM kv_items`); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	return nil
}

// RemoveItems deletes several keys in one statement.
func (r *PostgresKVRepository) RemoveItems(ctx context.Context, keys []string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM kv_items WHERE key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("RemoveItems: %w", err)
	}
	return nil
}
