package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/models"
)

// notesFormatVersion is written into the persisted envelope. Version 0 is the
// bare JSON array written by earlier releases.
const notesFormatVersion = 1

type notesEnvelope struct {
	Version int           `json:"version"`
	Notes   []models.Note `json:"notes"`
}

// Local keeps the whole note collection as one value under kvstore.KeyNotes.
// Every mutation rewrites the full collection; the last writer wins.
type Local struct {
	kv kvstore.Store
	mu sync.Mutex
}

// NewLocal creates a local backend on kv.
func NewLocal(kv kvstore.Store) *Local {
	return &Local{kv: kv}
}

// Name implements Backend.
func (l *Local) Name() string { return "local" }

// GetAll returns the stored collection. A missing or unreadable payload yields
// an empty collection; seeding is up to the caller.
func (l *Local) GetAll(_ context.Context) ([]models.Note, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Save inserts n or replaces the entry with the same id, then returns n unchanged.
func (l *Local) Save(_ context.Context, n models.Note) (models.Note, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	notes, err := l.load()
	if err != nil {
		return models.Note{}, err
	}
	replaced := false
	for i := range notes {
		if notes[i].ID == n.ID {
			notes[i] = n
			replaced = true
			break
		}
	}
	if !replaced {
		notes = append(notes, n)
	}
	if err := l.store(notes); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Create implements Backend as an upsert.
func (l *Local) Create(ctx context.Context, n models.Note) (models.Note, error) {
	return l.Save(ctx, n)
}

// Update implements Backend as an upsert.
func (l *Local) Update(ctx context.Context, n models.Note) (models.Note, error) {
	return l.Save(ctx, n)
}

// Delete removes the note with id if present. Missing ids are not an error.
func (l *Local) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	notes, err := l.load()
	if err != nil {
		return err
	}
	kept := notes[:0]
	for _, n := range notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	return l.store(kept)
}

func (l *Local) load() ([]models.Note, error) {
	data, err := l.kv.Get(kvstore.KeyNotes)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []models.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load notes: %w", err)
	}
	notes, err := decodeNotes(data)
	if err != nil {
		return []models.Note{}, nil
	}
	return notes, nil
}

func (l *Local) store(notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notesEnvelope{Version: notesFormatVersion, Notes: notes})
	if err != nil {
		return fmt.Errorf("storage: encode notes: %w", err)
	}
	if err := l.kv.Set(kvstore.KeyNotes, data); err != nil {
		return fmt.Errorf("storage: save notes: %w", err)
	}
	return nil
}

// decodeNotes accepts both the versioned envelope and the legacy bare array.
func decodeNotes(data []byte) ([]models.Note, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var notes []models.Note
		if err := json.Unmarshal(trimmed, &notes); err != nil {
			return nil, err
		}
		return nonNil(notes), nil
	}
	var env notesEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Version > notesFormatVersion {
		return nil, fmt.Errorf("storage: unsupported notes format version %d", env.Version)
	}
	return nonNil(env.Notes), nil
}

func nonNil(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
