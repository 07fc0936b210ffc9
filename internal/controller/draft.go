package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/models"
)

// ErrDraftClosed is returned when the draft an operation started on was
// closed or replaced before it finished. Its result has been discarded.
var ErrDraftClosed = errors.New("draft closed")

// Draft is the editable form state for one note.
type Draft struct {
	// EditingID is empty for a new note.
	EditingID string
	Title     string
	Content   string
	Category  models.Category
	// Tags is the comma-separated text as typed.
	Tags      string
	Analyzing bool
	// Message is the last user-facing failure for this draft.
	Message string
}

// OpenDraft starts editing the note with id, or a blank SNIPPET when id is "".
// Any previously open draft is closed.
func (c *Controller) OpenDraft(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := &Draft{Category: models.CategorySnippet}
	if id != "" {
		i := indexOf(c.notes, id)
		if i < 0 {
			return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
		}
		n := c.notes[i]
		d = &Draft{
			EditingID: n.ID,
			Title:     n.Title,
			Content:   n.Content,
			Category:  n.Category,
			Tags:      strings.Join(n.Tags, ", "),
		}
	}
	c.closeDraftLocked()
	c.draft = d
	return nil
}

// Draft returns a copy of the open draft.
func (c *Controller) Draft() (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return Draft{}, false
	}
	return *c.draft, true
}

// EditDraft applies fn to the open draft.
func (c *Controller) EditDraft(fn func(*Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return ErrDraftClosed
	}
	fn(c.draft)
	return nil
}

// AnalyzeDraft runs extraction on the draft content and fills the draft with
// the result. If the draft is closed or replaced meanwhile, or a newer analysis
// supersedes this one, the call is cancelled and its result dropped. On
// failure the draft keeps its input.
func (c *Controller) AnalyzeDraft(ctx context.Context) error {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return ErrDraftClosed
	}
	raw := c.draft.Content
	if strings.TrimSpace(raw) == "" {
		c.mu.Unlock()
		return fmt.Errorf("%w: nothing to analyze", apperr.ErrValidation)
	}
	if c.draftCancel != nil {
		c.draftCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.draftCancel = cancel
	gen := c.draftGen
	c.analysisSeq++
	seq := c.analysisSeq
	c.draft.Analyzing = true
	c.draft.Message = ""
	c.mu.Unlock()

	res, err := c.extractor.Extract(ctx, raw)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil || c.draftGen != gen || c.analysisSeq != seq {
		c.logger.Debug("discarding late extraction result")
		return ErrDraftClosed
	}
	c.draft.Analyzing = false
	c.draftCancel = nil
	if err != nil {
		c.draft.Message = apperr.UserMessage(err)
		c.logger.Warn("extraction failed", slog.String("error", err.Error()))
		return err
	}
	c.draft.Title = res.Title
	c.draft.Category = res.Category
	c.draft.Content = res.FormattedContent
	c.draft.Tags = strings.Join(res.Tags, ", ")
	return nil
}

// SaveDraft saves the open draft and closes it on success.
func (c *Controller) SaveDraft(ctx context.Context) (models.Note, error) {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return models.Note{}, ErrDraftClosed
	}
	d := *c.draft
	gen := c.draftGen
	c.mu.Unlock()

	saved, err := c.Save(ctx, d.EditingID, Input{
		Title:    d.Title,
		Content:  d.Content,
		Category: d.Category,
		Tags:     models.ParseTags(d.Tags),
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil || c.draftGen != gen {
		return saved, err
	}
	if err != nil {
		c.draft.Message = apperr.UserMessage(err)
		return models.Note{}, err
	}
	c.closeDraftLocked()
	return saved, nil
}

// CloseDraft discards the open draft and cancels any running analysis.
func (c *Controller) CloseDraft() {
	c.mu.Lock()
	c.closeDraftLocked()
	c.mu.Unlock()
}

func (c *Controller) closeDraftLocked() {
	if c.draftCancel != nil {
		c.draftCancel()
		c.draftCancel = nil
	}
	c.draftGen++
	c.draft = nil
}
