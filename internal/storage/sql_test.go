package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T, session string) *SQLStorage {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "storefront.db")

	s, err := OpenSQL(context.Background(), DialectSQLite, dsn, session)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_RoundTrip(t *testing.T) {
	s := setupSQLite(t, "sess1")
	ctx := context.Background()

	_, err := s.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart", []byte(`[{"id":"p1","quantity":1}]`)))
	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","quantity":1}]`, string(got))

	// upsert replaces the payload
	require.NoError(t, s.Set(ctx, "cart", []byte(`[{"id":"p1","quantity":3}]`)))
	got, err = s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","quantity":3}]`, string(got))

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_MigrationsAreIdempotent(t *testing.T) {
	s := setupSQLite(t, "sess1")
	assert.NoError(t, s.RunMigrations())
}

func TestSQLite_SessionsAreIsolated(t *testing.T) {
	a := setupSQLite(t, "a")
	b := NewSQLStorage(a.db, DialectSQLite, "b")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "favorites", []byte(`[]`)))
	_, err := b.Get(ctx, "favorites")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStorage_QueryErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLStorage(db, DialectPostgres, "sess1")
	mock.ExpectQuery("SELECT payload").
		WithArgs("sess1", "cart").
		WillReturnError(errors.New("connection reset"))

	_, err = s.Get(context.Background(), "cart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "failed to query cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_SetUsesUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLStorage(db, DialectPostgres, "sess1")
	mock.ExpectExec(`(?s)INSERT INTO storefront_kv.*ON CONFLICT`).
		WithArgs("sess1", "favorites", `[{"id":"p2"}]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "favorites", []byte(`[{"id":"p2"}]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_DeleteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLStorage(db, DialectSQLite, "sess1")
	mock.ExpectExec("DELETE FROM storefront_kv").
		WithArgs("sess1", "cart").
		WillReturnError(errors.New("disk I/O error"))

	err = s.Delete(context.Background(), "cart")
	assert.ErrorContains(t, err, "failed to delete cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_UnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLStorage(db, Dialect("mysql"), "sess1")
	assert.ErrorContains(t, s.RunMigrations(), "unsupported dialect")
}
