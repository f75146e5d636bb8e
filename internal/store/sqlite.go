package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA busy_timeout = 5000`,
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
		published_at       DATETIME,
		apply_url          TEXT NOT NULL DEFAULT '',
		source_type        TEXT NOT NULL DEFAULT 'official',
		platform           TEXT NOT NULL DEFAULT '',
		category           TEXT NOT NULL DEFAULT '',
		experience_level   TEXT NOT NULL DEFAULT '',
		timezone           TEXT NOT NULL DEFAULT '',
		is_remote          BOOLEAN NOT NULL DEFAULT 0,
		is_manually_edited BOOLEAN NOT NULL DEFAULT 0,
		is_approved        BOOLEAN NOT NULL DEFAULT 0,
		is_featured        BOOLEAN NOT NULL DEFAULT 0,
		translations       TEXT NOT NULL DEFAULT 'null',
		updated_at         DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_company_id ON jobs (company_id)`,
	`CREATE INDEX IF NOT EXISTS jobs_company_name ON jobs (company_name)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		careers_url TEXT NOT NULL,
		keep_stale  BOOLEAN NOT NULL DEFAULT 0,
		enabled     BOOLEAN NOT NULL DEFAULT 1
	)`,
}

// SQLiteStore is the default Store, backed by a single SQLite file.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs and companies tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; transactions would otherwise hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s, err := newSQLStore(db, dialect{name: "sqlite", placeholder: sq.Question, schema: sqliteSchema})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{sqlStore: s}, nil
}
