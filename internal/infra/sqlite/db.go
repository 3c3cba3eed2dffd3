// Package sqlite provides SQLite-based persistent storage for timecard.
// Uses WAL mode for concurrent reads and crash-safe writes. The single
// shared connection serializes writers, which the time entry ledger
// relies on for its check-and-set discipline.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/timecard.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return open(filepath.Join(dir, "timecard.db"))
}

// OpenMemory opens an in-memory database for tests.
func OpenMemory() (*DB, error) {
	return open(":memory:")
}

func open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	// WAL for crash-safe concurrent reads, foreign keys for the cascade
	// rules the schema relies on. Set per connection; with a pool of one
	// this covers every statement.
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Identity: platform accounts with an optional operator link
		// and the per-user running-entry back-reference.
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			operator_id     TEXT NOT NULL DEFAULT '',
			active_entry_id TEXT REFERENCES time_entries(id) ON DELETE SET NULL,
			created_at      INTEGER NOT NULL
		)`,

		// Ownership hierarchy: project → task → time entry, with
		// stages shared across projects through a join table.
		`CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_by TEXT NOT NULL REFERENCES users(id),
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stages (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_by TEXT NOT NULL REFERENCES users(id),
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS project_stages (
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			stage_id   TEXT NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
			PRIMARY KEY (project_id, stage_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			stage_id   TEXT NOT NULL REFERENCES stages(id),
			created_by TEXT NOT NULL REFERENCES users(id),
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_stage ON tasks(stage_id)`,

		// Time entries: project and employee are denormalized at
		// creation for query efficiency. Duration is written once at
		// stop and stays 0 while the entry is running.
		`CREATE TABLE IF NOT EXISTS time_entries (
			id          TEXT PRIMARY KEY,
			task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			project_id  TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			created_by  TEXT NOT NULL,
			start_time  INTEGER NOT NULL,
			end_time    INTEGER,
			duration    INTEGER NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_task ON time_entries(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_project ON time_entries(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_creator ON time_entries(created_by)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Ordering ───────────────────────────────────────────────────────────────

// orderClauses maps caller-facing order keys to fixed ORDER BY clauses.
// Free-form order strings never reach the SQL layer.
var orderClauses = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"name":        "name ASC",
	"-name":       "name DESC",
	"start_time":  "start_time ASC",
	"-start_time": "start_time DESC",
}

// ValidOrder reports whether key is an accepted order key. The empty
// key is valid and selects each listing's default order.
func ValidOrder(key string) bool {
	if key == "" {
		return true
	}
	_, ok := orderClauses[key]
	return ok
}

// orderSQL resolves an order key to its clause, falling back to def for
// the empty key. Callers validate keys first via ValidOrder.
func orderSQL(key, def string) string {
	if c, ok := orderClauses[key]; ok {
		return c
	}
	return def
}

// limitSQL appends LIMIT/OFFSET. A non-positive limit means unbounded;
// offset only applies when a limit is set (SQLite requires LIMIT for
// OFFSET).
func limitSQL(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	if offset > 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func unixTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}
