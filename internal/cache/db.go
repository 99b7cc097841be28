package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the local SQLite store: the persisted session, cached table
// reads, recent lookups and the approval monitor's last counts.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS vehicles (
			id INTEGER PRIMARY KEY,
			plate TEXT NOT NULL,
			document TEXT,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_plate ON vehicles(plate)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_document ON vehicles(document)`,

		`CREATE TABLE IF NOT EXISTS table_lists (
			list_type TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS recent_lookups (
			query TEXT PRIMARY KEY,
			searched_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pending_counts (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			feedbacks INTEGER NOT NULL,
			inspections INTEGER NOT NULL,
			checked_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
