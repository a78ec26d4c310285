// Package testutil provides helpers shared by package tests: an in-memory
// SQLite database, an in-memory whitelist repository and account builders.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedEntries saves whitelist entries or fails the test.
func (db *TestDB) SeedEntries(entries ...model.WhitelistEntry) *TestDB {
	db.t.Helper()
	for _, e := range entries {
		if err := db.Storage.SaveEntry(context.Background(), e); err != nil {
			db.t.Fatalf("failed to seed entry %s/%s: %v", e.ExtractedValue, e.ReferenceValue, err)
		}
	}
	return db
}
