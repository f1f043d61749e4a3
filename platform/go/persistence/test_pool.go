package persistence

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// mustTestPool connects to the database named by TEST_DATABASE_URL and
// applies the embedded platform DDL. Tests that need a live database skip
// when the variable is unset.
func mustTestPool(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	url, ok := os.LookupEnv("TEST_DATABASE_URL")
	if !ok || url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("create test pool: %v", err)
	}

	if err := Bootstrap(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply platform ddl: %v", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup
}
