// Package testdb opens migrated in-memory databases for tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/rza-core/internal/infrastructure/database"
	_ "github.com/nerrad567/rza-core/migrations" // Registers embedded migrations
)

// Open returns an in-memory database with the full schema applied.
// It is closed when the test finishes.
func Open(t testing.TB) *database.DB {
	t.Helper()
	return open(t, ":memory:", false)
}

// OpenFile returns a migrated WAL database in a temporary directory, for
// tests that need a real file such as concurrent writers.
func OpenFile(t testing.TB) *database.DB {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), "rza.db"), true)
}

func open(t testing.TB, path string, wal bool) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        path,
		WALMode:     wal,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// Count returns the number of rows in table.
func Count(t testing.TB, db database.DBTX, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil { //nolint:gosec // Test helper with fixed table names
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
