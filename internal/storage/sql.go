package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStorage keeps session collections in a storefront_kv table. The same
// statements run on sqlite and postgres.
type SQLStorage struct {
	db      *sql.DB
	dialect Dialect
	session string
}

// OpenSQL opens an instrumented connection, pings it and applies migrations.
func OpenSQL(ctx context.Context, dialect Dialect, dsn, session string) (*SQLStorage, error) {
	db, err := otelsql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewSQLStorage(db, dialect, session)
	if err := s.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLStorage(db *sql.DB, dialect Dialect, session string) *SQLStorage {
	return &SQLStorage{db: db, dialect: dialect, session: session}
}

func (s *SQLStorage) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	case DialectPostgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT payload
		FROM storefront_kv
		WHERE session_id = $1 AND name = $2
	`

	var payload string
	err := s.db.QueryRowContext(ctx, query, s.session, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", key, err)
	}
	return []byte(payload), nil
}

func (s *SQLStorage) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storefront_kv (session_id, name, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, name)
		DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, s.session, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM storefront_kv WHERE session_id = $1 AND name = $2`

	if _, err := s.db.ExecContext(ctx, query, s.session, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
