package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	create: `
        CREATE TABLE IF NOT EXISTS portfolio_state (
            key        TEXT PRIMARY KEY,
            payload    TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
	get: "SELECT payload FROM portfolio_state WHERE key = ?",
	put: `
        INSERT INTO portfolio_state (key, payload, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (key)
        DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
}

// OpenSQLite opens a local SQLite file with WAL journaling.
// A single connection is kept so ":memory:" databases survive between calls.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	return db, nil
}

// NewSQLiteRepository wraps an open SQLite database
func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, d: sqliteDialect}
}
