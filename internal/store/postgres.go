package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id                 TEXT PRIMARY KEY,
		company_id         TEXT NOT NULL DEFAULT '',
		company_name       TEXT NOT NULL DEFAULT '',
		title              TEXT NOT NULL,
		url                TEXT NOT NULL,
		location           TEXT NOT NULL DEFAULT '',
		employment_type    TEXT NOT NULL DEFAULT '',
		description        TEXT NOT NULL DEFAULT '',
		requirements       TEXT NOT NULL DEFAULT 'null',
		benefits           TEXT NOT NULL DEFAULT 'null',
		tags               TEXT NOT NULL DEFAULT 'null',
		published_at       TIMESTAMPTZ,
		apply_url          TEXT NOT NULL DEFAULT '',
		source_type        TEXT NOT NULL DEFAULT 'official',
		platform           TEXT NOT NULL DEFAULT '',
		category           TEXT NOT NULL DEFAULT '',
		experience_level   TEXT NOT NULL DEFAULT '',
		timezone           TEXT NOT NULL DEFAULT '',
		is_remote          BOOLEAN NOT NULL DEFAULT FALSE,
		is_manually_edited BOOLEAN NOT NULL DEFAULT FALSE,
		is_approved        BOOLEAN NOT NULL DEFAULT FALSE,
		is_featured        BOOLEAN NOT NULL DEFAULT FALSE,
		translations       TEXT NOT NULL DEFAULT 'null',
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_company_id ON jobs (company_id)`,
	`CREATE INDEX IF NOT EXISTS jobs_company_name ON jobs (company_name)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		careers_url TEXT NOT NULL,
		keep_stale  BOOLEAN NOT NULL DEFAULT FALSE,
		enabled     BOOLEAN NOT NULL DEFAULT TRUE
	)`,
}

// PostgresStore is a Store on a shared Postgres database.
type PostgresStore struct {
	*sqlStore
	pool *pgxpool.Pool
}

// NewPostgresStore creates and verifies a pgxpool connection pool, then
// exposes it through database/sql for the shared SQL implementation.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	s, err := newSQLStore(db, dialect{name: "postgres", placeholder: sq.Dollar, schema: postgresSchema})
	if err != nil {
		db.Close()
		pool.Close()
		return nil, err
	}
	return &PostgresStore{sqlStore: s, pool: pool}, nil
}

// Close closes the database handle and the pool behind it.
func (s *PostgresStore) Close() error {
	err := s.sqlStore.Close()
	s.pool.Close()
	return err
}
