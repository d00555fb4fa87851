package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/GophShop/internal/client/storage"
	"github.com/lib/pq"
)

func setupKVMock(t *testing.T) (*PostgresKVRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresKVRepository(db, 0)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestGetItem_Found(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_items WHERE key = $1`)).
		WithArgs(storage.KeyCart).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":1}]`))

	v, ok, err := repo.GetItem(context.Background(), storage.KeyCart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != `[{"id":1}]` {
		t.Errorf("GetItem = %q, %v; want %q, true", v, ok, `[{"id":1}]`)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetItem_Missing(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_items WHERE key = $1`)).
		WithArgs(storage.KeySession).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, ok, err := repo.GetItem(context.Background(), storage.KeySession)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected missing key")
	}
}

func TestGetItem_Error(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_items WHERE key = $1`)).
		WithArgs(storage.KeySession).
		WillReturnError(errors.New("query failed"))

	if _, _, err := repo.GetItem(context.Background(), storage.KeySession); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestSetItem_Success(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_items (key, value, updated_at)`)).
		WithArgs(storage.KeyUsers, `[]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.SetItem(context.Background(), storage.KeyUsers, `[]`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

const usageQuery = `SELECT COALESCE(SUM(octet_length(key) + octet_length(value)), 0)`

func TestSetItem_WithinQuota(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()
	repo.Quota = 64

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(usageQuery)).
		WithArgs(storage.KeyCart).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(40))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_items (key, value, updated_at)`)).
		WithArgs(storage.KeyCart, `[]`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// 40 + len("CartItems") + len("[]") = 51
	if err := repo.SetItem(context.Background(), storage.KeyCart, `[]`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSetItem_OverQuota(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()
	repo.Quota = 50

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(usageQuery)).
		WithArgs(storage.KeyCart).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(40))
	mock.ExpectRollback()

	err := repo.SetItem(context.Background(), storage.KeyCart, `[]`)
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("SetItem error = %v; want ErrQuotaExceeded", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSetItem_UsageQueryFails(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()
	repo.Quota = 50

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(usageQuery)).
		WithArgs(storage.KeyCart).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SetItem(context.Background(), storage.KeyCart, `[]`)
	if err == nil || errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("SetItem error = %v; want a backend error", err)
	}
}

func TestRemoveItem(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_items WHERE key = $1`)).
		WithArgs(storage.KeySession).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RemoveItem(context.Background(), storage.KeySession); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKeys(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key FROM kv_items ORDER BY key`)).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("CartItems").AddRow("user"))

	keys, err := repo.Keys(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "CartItems" || keys[1] != "user" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestEvictUsesBatchDelete(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key FROM kv_items ORDER BY key`)).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("CartItems").AddRow("user").AddRow("users"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_items WHERE key = ANY($1)`)).
		WithArgs(pq.Array([]string{"CartItems"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := storage.NewAdapter(repo)
	if err := a.Evict(context.Background(), storage.KeySession, storage.KeyUsers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestClear(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_items`)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	if err := repo.Clear(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
