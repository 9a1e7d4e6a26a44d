package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		name TEXT PRIMARY KEY,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS captures (
		id TEXT PRIMARY KEY,
		captured_at DATETIME NOT NULL,
		artifact_key TEXT NOT NULL DEFAULT '',
		artifact_url TEXT NOT NULL DEFAULT '',
		publish_error TEXT NOT NULL DEFAULT '',
		classify_error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_id TEXT NOT NULL,
		label TEXT NOT NULL,
		x INTEGER DEFAULT 0,
		y INTEGER DEFAULT 0,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		confidence REAL DEFAULT 0,
		FOREIGN KEY (capture_id) REFERENCES captures(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_captures_captured_at ON captures(captured_at);
	CREATE INDEX IF NOT EXISTS idx_detections_label ON detections(label);
	CREATE INDEX IF NOT EXISTS idx_detections_capture_id ON detections(capture_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
