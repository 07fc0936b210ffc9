// Package controller owns the in-memory note collection and the state a user
// interface renders: search text, category filter, load error and the edit draft.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/extraction"
	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/models"
	"github.com/starford/devmemory/internal/storage"
)

// Extractor structures raw text into a note draft.
type Extractor interface {
	Extract(ctx context.Context, raw string) (*extraction.Result, error)
}

// Input is the user-entered part of a note.
type Input struct {
	Title    string
	Content  string
	Category models.Category
	Tags     []string
}

// Controller orchestrates load, filter, save and delete against the storage
// façade. Every method is safe for concurrent use; concurrent mutations are
// applied last-write-wins.
type Controller struct {
	facade    *storage.Facade
	extractor Extractor
	kv        kvstore.Store
	logger    *slog.Logger

	now   func() int64
	newID func() string
	seed  bool

	mu      sync.Mutex
	notes   []models.Note
	search  string
	filter  models.Category
	loadErr string

	draft       *Draft
	draftGen    uint64
	draftCancel context.CancelFunc
	// analysisSeq identifies the latest AnalyzeDraft call; older calls drop their result.
	analysisSeq uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the epoch-millisecond clock.
func WithClock(now func() int64) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides note id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithoutSeed disables the demonstration notes written to an empty local store.
func WithoutSeed() Option {
	return func(c *Controller) { c.seed = false }
}

// New creates a controller. kv is where settings are persisted.
func New(facade *storage.Facade, extractor Extractor, kv kvstore.Store, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		facade:    facade,
		extractor: extractor,
		kv:        kv,
		logger:    logger,
		now:       models.Now,
		newID:     func() string { return uuid.New().String() },
		seed:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the collection with the active backend's notes, newest first.
// On failure the collection is cleared and Err reports the message.
func (c *Controller) Load(ctx context.Context) error {
	notes, err := c.facade.GetAll(ctx)
	if err == nil && len(notes) == 0 && c.seed && c.facade.IsLocal() {
		notes, err = c.seedNotes(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.notes = nil
		c.loadErr = c.loadMessage(err)
		c.logger.Error("load notes failed",
			slog.String("backend", c.facade.Backend().Name()),
			slog.String("error", err.Error()),
		)
		return err
	}

	models.SortByLastModified(notes)
	c.notes = notes
	c.loadErr = ""
	c.logger.Debug("notes loaded",
		slog.String("backend", c.facade.Backend().Name()),
		slog.Int("count", len(notes)),
	)
	return nil
}

func (c *Controller) loadMessage(err error) string {
	s := c.facade.Settings()
	if s.StorageMode == models.StorageAPI {
		return fmt.Sprintf("cannot reach %s: %s", s.APIURL, apperr.UserMessage(err))
	}
	return "cannot read local notes: " + apperr.UserMessage(err)
}

// ApplySettings validates and persists s, switches the backend and reloads.
// Notes are not migrated between backends.
func (c *Controller) ApplySettings(ctx context.Context, s models.AppSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if err := storage.SaveSettings(c.kv, s); err != nil {
		return err
	}
	if err := c.facade.Configure(s); err != nil {
		return err
	}
	c.logger.Info("storage settings applied",
		slog.String("mode", string(s.StorageMode)),
		slog.String("api_url", s.APIURL),
	)
	return c.Load(ctx)
}

// Save creates a note when editingID is empty, otherwise updates that note.
// Title and content must be non-blank; no backend call is made otherwise.
func (c *Controller) Save(ctx context.Context, editingID string, in Input) (models.Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return models.Note{}, fmt.Errorf("%w: title and content are required", apperr.ErrValidation)
	}

	now := c.now()
	candidate := models.Note{
		Title:        in.Title,
		Content:      in.Content,
		Category:     models.ParseCategory(string(in.Category)),
		Tags:         cleanTags(in.Tags),
		LastModified: now,
	}
	isNew := editingID == ""
	if isNew {
		candidate.ID = c.newID()
		candidate.CreatedAt = now
	} else {
		candidate.ID = editingID
		candidate.CreatedAt = now
		if existing, ok := c.Get(editingID); ok {
			candidate.CreatedAt = existing.CreatedAt
		}
	}

	saved, err := c.facade.Save(ctx, candidate, isNew)
	if err != nil {
		c.logger.Error("save note failed",
			slog.String("id", candidate.ID),
			slog.String("error", err.Error()),
		)
		return models.Note{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if isNew {
		c.notes = append([]models.Note{saved}, removeID(c.notes, saved.ID)...)
	} else if i := indexOf(c.notes, saved.ID); i >= 0 {
		c.notes[i] = saved
	} else {
		c.notes = append([]models.Note{saved}, c.notes...)
	}
	return saved, nil
}

// Delete removes a note after confirm approves it. A declined confirmation
// returns false and no error. A nil confirm approves.
func (c *Controller) Delete(ctx context.Context, id string, confirm func(models.Note) bool) (bool, error) {
	n, ok := c.Get(id)
	if !ok {
		n = models.Note{ID: id}
	}
	if confirm != nil && !confirm(n) {
		return false, nil
	}

	if err := c.facade.Delete(ctx, id); err != nil {
		c.logger.Error("delete note failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, err
	}

	c.mu.Lock()
	c.notes = removeID(c.notes, id)
	c.mu.Unlock()
	return true, nil
}

// Get returns the in-memory note with id.
func (c *Controller) Get(id string) (models.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.notes, id); i >= 0 {
		return c.notes[i], true
	}
	return models.Note{}, false
}

// SetSearch sets the free-text search.
func (c *Controller) SetSearch(s string) {
	c.mu.Lock()
	c.search = s
	c.mu.Unlock()
}

// SetCategoryFilter restricts the view to one category. "" shows all.
func (c *Controller) SetCategoryFilter(cat models.Category) {
	c.mu.Lock()
	c.filter = cat
	c.mu.Unlock()
}

// Filtered returns the notes passing the current search and category filter,
// in collection order.
func (c *Controller) Filtered() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter(c.notes, c.search, c.filter)
}

// Query applies search and cat to the collection without touching the
// stored search state.
func (c *Controller) Query(search string, cat models.Category) []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter(c.notes, search, cat)
}

func filter(notes []models.Note, search string, cat models.Category) []models.Note {
	out := []models.Note{}
	for _, n := range notes {
		if n.Matches(search, cat) {
			out = append(out, n)
		}
	}
	return out
}

// Notes returns a copy of the whole collection.
func (c *Controller) Notes() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Note(nil), c.notes...)
}

// Settings returns the active storage settings.
func (c *Controller) Settings() models.AppSettings {
	return c.facade.Settings()
}

// Err returns the last load failure message, or "" when the collection is usable.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func indexOf(notes []models.Note, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}

func removeID(notes []models.Note, id string) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

func cleanTags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
