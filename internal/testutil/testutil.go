// Package testutil provides shared test helpers for setting up stores and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/devmemory/internal/index"
	"github.com/starford/devmemory/internal/kvstore"
)

// TestDB creates a temporary SQLite note database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "devmemory-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestKV creates a file-backed key-value store in a temporary directory.
func TestKV(t *testing.T) kvstore.Store {
	t.Helper()
	kv, err := kvstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return kv
}
