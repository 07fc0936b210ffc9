package controller

import (
	"context"

	"github.com/starford/devmemory/internal/models"
)

var seedInputs = []Input{
	{
		Title:    "Maven Skip Tests",
		Content:  "mvn clean install -DskipTests",
		Category: models.CategoryCommand,
		Tags:     []string{"maven", "build"},
	},
	{
		Title:    "Spring Boot Profile",
		Content:  "-Dspring.profiles.active=dev",
		Category: models.CategoryConfig,
		Tags:     []string{"spring", "jvm"},
	},
}

// seedNotes writes the demonstration notes through the active backend.
func (c *Controller) seedNotes(ctx context.Context) ([]models.Note, error) {
	now := c.now()
	notes := make([]models.Note, 0, len(seedInputs))
	for _, in := range seedInputs {
		n := models.Note{
			ID:           c.newID(),
			Title:        in.Title,
			Content:      in.Content,
			Category:     in.Category,
			Tags:         append([]string(nil), in.Tags...),
			CreatedAt:    now,
			LastModified: now,
		}
		saved, err := c.facade.Save(ctx, n, true)
		if err != nil {
			return nil, err
		}
		notes = append(notes, saved)
	}
	c.logger.Info("seeded demonstration notes")
	return notes, nil
}
