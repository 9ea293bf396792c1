// Package dbsetup owns the SQLite schema and connection bootstrap, grounded
// on jholhewres-goclaw/pkg/devclaw/database/backends/sqlite.go's
// open-then-migrate shape, adapted from a single "central DB" file to the
// three tables spec §6 names.
package dbsetup

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// schema creates the three tables spec §6 names, plus the
// (task_definition.name, task_definition.version) unique index spec §3
// requires for version uniqueness.
const schema = `
CREATE TABLE IF NOT EXISTS task_definition (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	version         INTEGER NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	image           TEXT NOT NULL,
	command         TEXT NOT NULL DEFAULT '',
	args            TEXT NOT NULL DEFAULT '',
	env             TEXT NOT NULL DEFAULT '',
	memory_limit_mb INTEGER,
	cpu_shares      INTEGER,
	enabled         INTEGER NOT NULL DEFAULT 1,
	is_latest       INTEGER NOT NULL DEFAULT 1,
	created_at      TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_task_definition_name_version
	ON task_definition(name, version);

CREATE INDEX IF NOT EXISTS idx_task_definition_name_latest
	ON task_definition(name, is_latest);

CREATE TABLE IF NOT EXISTS job (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT NOT NULL,
	task_definition_id INTEGER NOT NULL,
	status             TEXT NOT NULL,
	submited_at        TEXT NOT NULL,
	started_at         TEXT,
	finished_at        TEXT,
	container_type     TEXT NOT NULL DEFAULT 'docker',
	container_id       TEXT,
	exit_code          INTEGER,
	error_message      TEXT,
	log_expire_after_s INTEGER,
	log_expired        INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_status ON job(status);

CREATE TABLE IF NOT EXISTS schedule (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	name                    TEXT NOT NULL,
	job_name                TEXT NOT NULL,
	cron_expression         TEXT NOT NULL,
	task_definition_id      INTEGER NOT NULL,
	command                 TEXT NOT NULL DEFAULT '',
	timezone                TEXT NOT NULL DEFAULT 'UTC',
	timezone_offset_minutes INTEGER NOT NULL DEFAULT 0,
	enabled                 INTEGER NOT NULL DEFAULT 1,
	created_at              TEXT NOT NULL,
	last_triggered_at       TEXT
);

CREATE INDEX IF NOT EXISTS idx_schedule_enabled ON schedule(enabled);
`

// Open parses a spec-style DSN (e.g. "sqlite://./db.sqlite?mode=rwc"),
// opens the database/sql pool through mattn/go-sqlite3, and applies the
// schema. Repositories are coded against the returned *sql.DB only, so a
// different database/sql driver could replace sqlite3 without touching
// repository code (see SPEC_FULL.md on the pgx drop).
func Open(dsn string) (*sql.DB, error) {
	path, err := sqlitePath(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("dbsetup: open %s: %w", path, err)
	}

	// Spec §5: pool min 5 / max 100. SQLite only meaningfully supports one
	// writer at a time, so MaxOpenConns is capped low to avoid
	// "database is locked" thrash; readers still serialize through the
	// driver's internal mutex.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(5)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema idempotently. Safe to call on every startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("dbsetup: migrate: %w", err)
	}
	return nil
}

// sqlitePath extracts the filesystem path and go-sqlite3 DSN parameters
// from a "sqlite://path?query" URL, since mattn/go-sqlite3 wants a bare
// path+query string, not a URL with a scheme.
func sqlitePath(dsn string) (string, error) {
	const prefix = "sqlite://"
	if !strings.HasPrefix(dsn, prefix) {
		return "", fmt.Errorf("dbsetup: unsupported DSN scheme in %q (expected %q)", dsn, prefix)
	}
	return strings.TrimPrefix(dsn, prefix), nil
}
