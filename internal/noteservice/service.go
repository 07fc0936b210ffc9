// Package noteservice implements the server side of the remote note contract:
// id and timestamp assignment on top of the note table.
package noteservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/index"
	"github.com/starford/devmemory/internal/models"
)

// EventFunc is notified after every successful mutation.
// kind is one of "created", "updated", "deleted".
type EventFunc func(kind, id string)

// Service coordinates note table operations.
type Service struct {
	db      index.NoteIndex
	onEvent EventFunc
	now     func() int64
}

// Option configures a Service.
type Option func(*Service)

// WithEvents registers a mutation callback.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.onEvent = fn }
}

// WithClock overrides the epoch-millisecond clock.
func WithClock(now func() int64) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new note service.
func NewService(db index.NoteIndex, opts ...Option) *Service {
	s := &Service{db: db, now: models.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListNotes returns every note, most recently modified first.
func (s *Service) ListNotes(_ context.Context) ([]models.Note, error) {
	return s.db.ListNotes()
}

// GetNote returns a single note.
func (s *Service) GetNote(_ context.Context, id string) (*models.Note, error) {
	return s.db.GetNote(id)
}

// CreateNote stores n, assigning an id when the client sent none and
// stamping both timestamps with the current time.
func (s *Service) CreateNote(_ context.Context, n models.Note) (*models.Note, error) {
	if strings.TrimSpace(n.ID) == "" {
		n.ID = uuid.New().String()
	}
	now := s.now()
	n.CreatedAt = now
	n.LastModified = now
	n.Category = models.ParseCategory(string(n.Category))
	n.Tags = nonNilSlice(n.Tags)

	if err := s.db.InsertNote(n); err != nil {
		return nil, err
	}
	s.emit("created", n.ID)
	return &n, nil
}

// UpdateNote replaces note id with n, refreshing lastModified. The stored
// createdAt is kept whatever the client sent.
func (s *Service) UpdateNote(_ context.Context, id string, n models.Note) (*models.Note, error) {
	existing, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	n.ID = id
	n.CreatedAt = existing.CreatedAt
	n.LastModified = s.now()
	n.Category = models.ParseCategory(string(n.Category))
	n.Tags = nonNilSlice(n.Tags)

	if err := s.db.UpdateNote(n); err != nil {
		return nil, err
	}
	s.emit("updated", id)
	return &n, nil
}

// DeleteNote removes a note. Missing ids succeed.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	if id == "" {
		return apperr.ErrNotFound
	}
	if err := s.db.DeleteNote(id); err != nil {
		return err
	}
	s.emit("deleted", id)
	return nil
}

func (s *Service) emit(kind, id string) {
	if s.onEvent != nil {
		s.onEvent(kind, id)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
