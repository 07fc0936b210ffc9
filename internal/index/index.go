package index

import "github.com/starford/devmemory/internal/models"

// NoteIndex defines the interface for note table operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	InsertNote(n models.Note) error
	UpdateNote(n models.Note) error
	GetNote(id string) (*models.Note, error)
	ListNotes() ([]models.Note, error)
	DeleteNote(id string) error
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
