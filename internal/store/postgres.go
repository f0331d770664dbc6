package store

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

var postgresDialect = dialect{
	name:       "postgres",
	migrations: postgresMigrations,
	versionTableQuery: `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = 'schema_version'`,
}

// NewPostgresStore connects to PostgreSQL through the pgx stdlib driver,
// verifies the connection, and runs any pending schema migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &SQLStore{db: db, q: db, dialect: postgresDialect}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Reset empties every table and restarts the id sequences. It is meant
// for test databases.
func (s *SQLStore) Reset(ctx context.Context) error {
	query := "DELETE FROM checklist_items; DELETE FROM tasks"
	if s.dialect.name == postgresDialect.name {
		query = "TRUNCATE checklist_items, tasks RESTART IDENTITY CASCADE"
	}
	if _, err := s.q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("resetting %s store: %w", s.dialect.name, err)
	}
	return nil
}
