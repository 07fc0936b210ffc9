package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/devmemory/internal/models"
)

const categoriesURI = "devmemory://categories"

type categoryInfo struct {
	Value models.Category `json:"value"`
	Label string          `json:"label"`
}

func categoriesDocument() (string, error) {
	cats := models.Categories()
	out := make([]categoryInfo, len(cats))
	for i, c := range cats {
		out[i] = categoryInfo{Value: c, Label: c.Label()}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode categories: %w", err)
	}
	return string(data), nil
}

func (s *Server) readCategoriesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := categoriesDocument()
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      categoriesURI,
			MIMEType: "application/json",
			Text:     doc,
		},
	}, nil
}
