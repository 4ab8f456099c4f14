package db

import (
	"context"
	"os"
	"testing"
)

// SetupTestSQLite returns a migrated repository over an in-memory SQLite database
func SetupTestSQLite(t *testing.T) *SQLRepository {
	t.Helper()
	ctx := context.Background()

	conn, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	repo := NewSQLiteRepository(conn)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// SetupTestPostgres connects to TEST_POSTGRES_DSN, skipping the test when unset
func SetupTestPostgres(t *testing.T) *SQLRepository {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	conn, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	repo := NewPostgresRepository(conn)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		// Delete all test data
		if _, err := conn.Exec("DELETE FROM portfolio_state WHERE key LIKE 'test_%'"); err != nil {
			t.Logf("Warning: Failed to cleanup portfolio_state: %v", err)
		}
		repo.Close()
	})
	return repo
}
