package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteSchema mirrors the Postgres migrations.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS interaction_logs (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id           TEXT NOT NULL,
    user_input        TEXT NOT NULL,
    bot_response      TEXT NOT NULL,
    symptoms_detected TEXT NOT NULL DEFAULT '',
    conditions_found  TEXT NOT NULL DEFAULT '',
    language          TEXT NOT NULL DEFAULT 'en',
    timestamp         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interaction_logs_user_time
    ON interaction_logs (user_id, timestamp DESC, id DESC);

CREATE TABLE IF NOT EXISTS appointments (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    name         TEXT NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    scheduled_at TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'booked',
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_user_scheduled
    ON appointments (user_id, scheduled_at);
`

// OpenSQLite opens or creates a SQLite database file.
func OpenSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return initSQLite(conn)
}

// OpenSQLiteInMemory creates a private in-memory database. It is limited to
// one connection because every SQLite connection to :memory: is a separate
// database.
func OpenSQLiteInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return initSQLite(conn)
}

func initSQLite(conn *sql.DB) (*DB, error) {
	if _, err := conn.Exec(SQLiteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{DB: conn, Driver: SQLite}, nil
}
