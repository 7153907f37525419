package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	repo "github.com/paisapro/pricewise/internal/repository/sqlite"
)

// NewTestDB creates an in-memory SQLite database with the full schema
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	// in-memory databases vanish when their sole connection closes
	db.SetMaxOpenConns(1)

	if err := repo.RunMigrations(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
