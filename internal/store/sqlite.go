package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// dialect captures the per-database differences the SQL store needs.
type dialect struct {
	name       string
	migrations []migration
	// versionTableQuery returns the number of schema_version tables (0 or 1).
	versionTableQuery string
}

var sqliteDialect = dialect{
	name:              "sqlite",
	migrations:        sqliteMigrations,
	versionTableQuery: "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
}

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// SQLStore implements the Store interface on top of sqlx. Queries are
// written with ? placeholders and rebound for the active driver. A store
// returned to a WithTx callback has tx set and runs every query on it.
type SQLStore struct {
	db      *sqlx.DB
	q       dbtx
	tx      *sqlx.Tx
	dialect dialect
}

var _ Store = (*SQLStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode and foreign keys, and runs any pending schema
// migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps PRAGMAs and :memory: databases shared
	// across all queries and serializes writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLStore{db: db, q: db, dialect: sqliteDialect}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection. It is a no-op on a
// transaction-bound store.
func (s *SQLStore) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn on a store bound to a new transaction. Inside an
// existing transaction fn joins it.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&SQLStore{db: s.db, q: tx, tx: tx, dialect: s.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// inTx runs fn on the current transaction, or on a new one that is
// committed when fn succeeds.
func (s *SQLStore) inTx(ctx context.Context, fn func(q dbtx) error) error {
	return s.WithTx(ctx, func(tx Store) error {
		return fn(tx.(*SQLStore).q)
	})
}

// Driver returns the dialect name ("sqlite" or "postgres").
func (s *SQLStore) Driver() string {
	return s.dialect.name
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	if err := s.db.Get(&tableCount, s.dialect.versionTableQuery); err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range s.dialect.migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// boolToInt converts a boolean to 0 or 1 for storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
