package api

import (
	"strings"

	"github.com/starford/devmemory/internal/models"
)

// NoteRequest is the request body for creating or replacing a note.
// Timestamps sent by clients are ignored; the server owns them.
type NoteRequest struct {
	ID       string   `json:"id" validate:"max=128"`
	Title    string   `json:"title" validate:"required,max=512"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags" validate:"max=64,dive,max=64"`
}

// toNote converts the request into a domain note, accepting the legacy
// "type" field for the category.
func (r NoteRequest) toNote() models.Note {
	cat := r.Category
	if cat == "" {
		cat = r.Type
	}
	return models.Note{
		ID:       r.ID,
		Title:    r.Title,
		Content:  r.Content,
		Category: models.ParseCategory(cat),
		Tags:     cleanTags(r.Tags),
	}
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
