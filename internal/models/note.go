// Package models defines the domain types for DevMemory.
package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Category classifies what kind of artifact a note holds.
type Category string

// Known categories. Anything else coming from outside is coerced to CategorySnippet.
const (
	CategoryCommand   Category = "COMMAND"
	CategorySnippet   Category = "SNIPPET"
	CategoryProcedure Category = "PROCEDURE"
	CategoryLink      Category = "LINK"
	CategoryConfig    Category = "CONFIG"
	CategoryErrorFix  Category = "ERROR_FIX"
)

var categoryLabels = map[Category]string{
	CategoryCommand:   "Commands",
	CategorySnippet:   "Code snippets",
	CategoryProcedure: "Procedures",
	CategoryLink:      "Docs & links",
	CategoryConfig:    "Configs / env",
	CategoryErrorFix:  "Error fixes",
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryCommand,
		CategorySnippet,
		CategoryProcedure,
		CategoryLink,
		CategoryConfig,
		CategoryErrorFix,
	}
}

// CategoryNames returns the category values as plain strings, e.g. for enums in schemas.
func CategoryNames() []string {
	cats := Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns a human-readable name for the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory normalises s into a known category, falling back to SNIPPET.
func ParseCategory(s string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategorySnippet
}

// Note is a single stored knowledge record.
//
// Timestamps are epoch milliseconds so the JSON shape matches what browser
// clients and the remote note service exchange.
type Note struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Category     Category `json:"category"`
	Tags         []string `json:"tags"`
	CreatedAt    int64    `json:"createdAt"`
	LastModified int64    `json:"lastModified"`
}

// noteWire is the decoding shape. "type" is the field name older clients used
// for the category.
type noteWire struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Category     string   `json:"category"`
	Type         string   `json:"type"`
	Tags         []string `json:"tags"`
	CreatedAt    int64    `json:"createdAt"`
	LastModified int64    `json:"lastModified"`
}

// UnmarshalJSON decodes a note and coerces its category.
func (n *Note) UnmarshalJSON(data []byte) error {
	var w noteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	cat := w.Category
	if cat == "" {
		cat = w.Type
	}
	*n = Note{
		ID:           w.ID,
		Title:        w.Title,
		Content:      w.Content,
		Category:     ParseCategory(cat),
		Tags:         w.Tags,
		CreatedAt:    w.CreatedAt,
		LastModified: w.LastModified,
	}
	return nil
}

// MarshalJSON encodes a note, always emitting tags as an array.
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	p := plain(n)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return json.Marshal(p)
}

// sub must already be lower-cased.
func (n Note) hasTagContaining(sub string) bool {
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), sub) {
			return true
		}
	}
	return false
}

// Matches reports whether the note passes the search text and category filter.
// An empty filter matches every category.
func (n Note) Matches(search string, filter Category) bool {
	if filter != "" && n.Category != filter {
		return false
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q) ||
		n.hasTagContaining(q)
}

// ParseTags splits comma-separated input into trimmed, non-empty tags.
func ParseTags(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SortByLastModified orders notes newest first. Ties keep their relative order.
func SortByLastModified(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].LastModified > notes[j].LastModified
	})
}

// Now returns the current time in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
