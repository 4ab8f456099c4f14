package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var postgresDialect = dialect{
	name: "postgres",
	create: `
        CREATE TABLE IF NOT EXISTS portfolio_state (
            key        TEXT PRIMARY KEY,
            payload    JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
	get: "SELECT payload FROM portfolio_state WHERE key = $1",
	put: `
        INSERT INTO portfolio_state (key, payload, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (key)
        DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
}

// OpenPostgres opens and verifies a PostgreSQL connection pool
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// NewPostgresRepository wraps an open PostgreSQL pool
func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, d: postgresDialect}
}
