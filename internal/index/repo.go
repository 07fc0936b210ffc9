package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/models"
)

const selectColumns = `id, title, content, category, tags, created_at, last_modified`

// InsertNote stores a new row. An existing id yields apperr.ErrAlreadyExists.
func (db *DB) InsertNote(n models.Note) error {
	tagsJSON, err := encodeTags(n.Tags)
	if err != nil {
		return err
	}
	res, err := db.conn.Exec(`
		INSERT INTO notes (id, title, content, category, tags, created_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, n.ID, n.Title, n.Content, string(n.Category), tagsJSON, n.CreatedAt, n.LastModified)
	if err != nil {
		return fmt.Errorf("index: insert note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrAlreadyExists
	}
	return nil
}

// UpdateNote replaces the mutable columns of an existing row. created_at is
// never touched. A missing id yields apperr.ErrNotFound.
func (db *DB) UpdateNote(n models.Note) error {
	tagsJSON, err := encodeTags(n.Tags)
	if err != nil {
		return err
	}
	res, err := db.conn.Exec(`
		UPDATE notes SET
			title         = ?,
			content       = ?,
			category      = ?,
			tags          = ?,
			last_modified = ?
		WHERE id = ?
	`, n.Title, n.Content, string(n.Category), tagsJSON, n.LastModified, n.ID)
	if err != nil {
		return fmt.Errorf("index: update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// GetNote returns the row with id, or apperr.ErrNotFound.
func (db *DB) GetNote(id string) (*models.Note, error) {
	row := db.conn.QueryRow(`SELECT `+selectColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return n, nil
}

// ListNotes returns every row, most recently modified first.
func (db *DB) ListNotes() ([]models.Note, error) {
	rows, err := db.conn.Query(`SELECT ` + selectColumns + ` FROM notes ORDER BY last_modified DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan note: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// DeleteNote removes a row. Deleting a missing id is not an error.
func (db *DB) DeleteNote(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	var (
		n        models.Note
		category string
		tagsJSON string
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Content, &category, &tagsJSON, &n.CreatedAt, &n.LastModified); err != nil {
		return nil, err
	}
	n.Category = models.ParseCategory(category)
	n.Tags = []string{}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", n.ID, err)
	}
	return &n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("index: encode tags: %w", err)
	}
	return string(data), nil
}
