// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure-Go translation of SQLite — no CGo, no C
// toolchain, cross-compiles anywhere Go does. The database is a single file
// (or ":memory:" in tests).
//
// The two invariants the schema itself enforces:
//
//   - users.points carries a CHECK (points >= 0), and the only write path
//     is a conditional UPDATE, so a balance can never go negative even
//     under concurrent redemptions.
//   - a partial unique index on swaps(item_id, requester_id) WHERE
//     status = 'pending' makes "at most one pending swap per pair" hold
//     under concurrency, not just under the service's pre-check.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection
	// serializes our statements so a concurrent write waits instead of
	// failing with SQLITE_BUSY, leaving the conditional updates and the
	// unique index to report Validation/Conflict. It also keeps ":memory:"
	// coherent — each pooled connection would otherwise open its own empty
	// in-memory database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// If another process holds the file lock, wait up to 5s before
	// surfacing SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server sharing one database file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for legacy reasons.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent,
// which is enough for a single-binary deployment; a migration tracker would
// be the next step if the schema starts evolving.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			is_admin      INTEGER NOT NULL DEFAULT 0,
			points        INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
			full_name     TEXT NOT NULL DEFAULT '',
			age           INTEGER NOT NULL DEFAULT 0,
			gender        TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			type         TEXT NOT NULL DEFAULT '',
			size         TEXT NOT NULL DEFAULT '',
			condition    TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '[]',
			image_paths  TEXT NOT NULL DEFAULT '[]',
			uploader_id  TEXT NOT NULL REFERENCES users(id),
			approved     INTEGER NOT NULL DEFAULT 0,
			availability TEXT NOT NULL DEFAULT 'available'
			             CHECK (availability IN ('available', 'swapped', 'redeemed')),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_items_browsable
			ON items(approved, availability, created_at);
		CREATE INDEX IF NOT EXISTS idx_items_uploader ON items(uploader_id);
	`)
	if err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS swaps (
			id           TEXT PRIMARY KEY,
			item_id      TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			requester_id TEXT NOT NULL REFERENCES users(id),
			status       TEXT NOT NULL DEFAULT 'pending'
			             CHECK (status IN ('pending', 'complete', 'rejected')),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_swaps_one_pending
			ON swaps(item_id, requester_id) WHERE status = 'pending';
		CREATE INDEX IF NOT EXISTS idx_swaps_requester ON swaps(requester_id);
	`)
	if err != nil {
		return fmt.Errorf("creating swaps table: %w", err)
	}

	return nil
}
