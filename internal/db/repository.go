package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when no record is stored under the key
var ErrNotFound = errors.New("record not found")

// dialect holds the statements that differ between SQL engines
type dialect struct {
	name   string
	create string
	get    string
	put    string
}

// SQLRepository stores one serialized document per key in a SQL table
type SQLRepository struct {
	db *sql.DB
	d  dialect
}

// Migrate creates the documents table if it does not exist
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.d.create); err != nil {
		return fmt.Errorf("error creating %s schema: %w", r.d.name, err)
	}
	return nil
}

// Get returns the document stored under key
func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, r.d.get, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", key, err)
	}
	return []byte(payload), nil
}

// Put replaces the document stored under key
func (r *SQLRepository) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, r.d.put, key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error writing %q: %w", key, err)
	}
	return nil
}

// Ping checks the connection
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying connection pool
func (r *SQLRepository) Close() error {
	return r.db.Close()
}
