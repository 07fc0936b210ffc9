package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/models"
)

// Facade routes persistence calls to the backend selected by the current
// settings. It holds no note data. Switching backends does not migrate notes.
type Facade struct {
	kv     kvstore.Store
	remote RemoteOptions

	mu       sync.RWMutex
	settings models.AppSettings
	backend  Backend
}

// NewFacade creates a façade configured with s.
func NewFacade(kv kvstore.Store, s models.AppSettings, remote RemoteOptions) (*Facade, error) {
	f := &Facade{kv: kv, remote: remote}
	if err := f.Configure(s); err != nil {
		return nil, err
	}
	return f, nil
}

// Configure validates s and swaps in the matching backend.
func (f *Facade) Configure(s models.AppSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("storage: invalid settings: %w", err)
	}
	b := NewBackend(s, f.kv, f.remote)

	f.mu.Lock()
	f.settings = s
	f.backend = b
	f.mu.Unlock()
	return nil
}

// Settings returns the active settings.
func (f *Facade) Settings() models.AppSettings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings
}

// Backend returns the active backend.
func (f *Facade) Backend() Backend {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.backend
}

// IsLocal reports whether notes currently live in the local store.
func (f *Facade) IsLocal() bool {
	return f.Settings().StorageMode == models.StorageLocal
}

// GetAll loads every note from the active backend.
func (f *Facade) GetAll(ctx context.Context) ([]models.Note, error) {
	return f.Backend().GetAll(ctx)
}

// Save persists n. isNew distinguishes create from update, which map to
// different requests in API mode.
func (f *Facade) Save(ctx context.Context, n models.Note, isNew bool) (models.Note, error) {
	b := f.Backend()
	if isNew {
		return b.Create(ctx, n)
	}
	return b.Update(ctx, n)
}

// Delete removes the note with id from the active backend.
func (f *Facade) Delete(ctx context.Context, id string) error {
	return f.Backend().Delete(ctx, id)
}
