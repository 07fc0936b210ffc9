// Package storage implements the note persistence backends and the façade
// that routes to whichever one the current settings select.
package storage

import (
	"context"

	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/models"
)

// Backend is the capability interface implemented by every persistence variant.
type Backend interface {
	// Name identifies the backend in logs and messages.
	Name() string
	// GetAll returns every stored note. Order is unspecified.
	GetAll(ctx context.Context) ([]models.Note, error)
	// Create persists a new note and returns it as stored.
	Create(ctx context.Context, n models.Note) (models.Note, error)
	// Update persists changes to an existing note and returns it as stored.
	Update(ctx context.Context, n models.Note) (models.Note, error)
	// Delete removes the note with the given id.
	Delete(ctx context.Context, id string) error
}

// Verify both variants satisfy Backend at compile time.
var (
	_ Backend = (*Local)(nil)
	_ Backend = (*Remote)(nil)
)

// NewBackend builds the variant selected by s. The settings must already be valid.
func NewBackend(s models.AppSettings, kv kvstore.Store, opts RemoteOptions) Backend {
	if s.StorageMode == models.StorageAPI {
		return NewRemote(s.APIURL, opts)
	}
	return NewLocal(kv)
}
