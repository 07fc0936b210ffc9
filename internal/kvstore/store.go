// Package kvstore provides the single-device durable key-value medium that
// local-mode notes and settings are persisted in.
package kvstore

import (
	"errors"
	"fmt"
	"regexp"
)

// Fixed keys.
const (
	KeyNotes    = "devmemory_notes"
	KeySettings = "devmemory_settings"
)

// Drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store is the interface for whole-value key-value persistence.
// Each Set replaces the entire value; there are no partial writes.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set atomically replaces the value under key.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Close releases the underlying medium.
	Close() error
}

// Open returns a Store for the given driver rooted at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverFile, "":
		return NewFS(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("kvstore: unknown driver %q", driver)
	}
}

func checkKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("kvstore: invalid key %q", key)
	}
	return nil
}
