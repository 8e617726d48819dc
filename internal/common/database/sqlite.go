// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteClient is the file-backed database behind the sqlite storage backend.
type SQLiteClient struct {
	DB *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies pending migrations.
// ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLiteClient, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteClient{DB: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// SharedSQLite opens the database at path once and hands the same client to every
// caller, so the storage backend and the catalog share one connection.
type SharedSQLite struct {
	path string

	once   sync.Once
	client *SQLiteClient
	err    error
}

func NewSharedSQLite(path string) *SharedSQLite {
	return &SharedSQLite{path: path}
}

// Open returns the shared client. Only the first call opens the file; later calls return
// its client or error.
func (s *SharedSQLite) Open(ctx context.Context) (*SQLiteClient, error) {
	s.once.Do(func() {
		s.client, s.err = OpenSQLite(ctx, s.path)
	})
	return s.client, s.err
}

// Close closes the client if Open ever succeeded.
func (s *SharedSQLite) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
