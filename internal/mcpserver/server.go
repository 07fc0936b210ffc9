// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes DevMemory notes to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/controller"
	"github.com/starford/devmemory/internal/models"
)

// Server wraps the MCP server with DevMemory tools.
type Server struct {
	mcp       *server.MCPServer
	ctrl      *controller.Controller
	extractor controller.Extractor
}

// New creates a new MCP server with all tools registered. ctrl must already be loaded.
func New(ctrl *controller.Controller, extractor controller.Extractor, version string) *Server {
	s := &Server{ctrl: ctrl, extractor: extractor}

	s.mcp = server.NewMCPServer(
		"DevMemory",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	categoryOpt := mcp.WithString("category",
		mcp.Description("Category filter"),
		mcp.Enum(models.CategoryNames()...),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List stored notes, newest first, optionally restricted to one category."),
		categoryOpt,
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search over note titles, contents and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
		categoryOpt,
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create a note, or update the note with the given id. "+
			"On update, omitted fields keep their current values."),
		mcp.WithString("id", mcp.Description("Id of the note to update; omit to create")),
		mcp.WithString("title", mcp.Description("Short title (required on create)")),
		mcp.WithString("content", mcp.Description("Note body (required on create)")),
		mcp.WithString("category", mcp.Description("Note category"), mcp.Enum(models.CategoryNames()...)),
		mcp.WithArray("tags", mcp.Description("Tags"), mcp.Items(map[string]any{"type": "string"})),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note. Nothing happens unless confirm is true."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the note to delete")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to delete")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("extract_note",
		mcp.WithDescription("Structure raw pasted text (command, snippet, log, link) into a title, "+
			"category, cleaned content and tags. Nothing is saved."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw text to analyze")),
	), s.extractNote)

	s.mcp.AddTool(mcp.NewTool("reload_notes",
		mcp.WithDescription("Reload notes from the storage backend, clearing a previous load error on success."),
	), s.reloadNotes)

	s.mcp.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Show the active storage mode, API URL and any load error."),
	), s.getSettings)

	s.mcp.AddResource(
		mcp.NewResource(categoriesURI, "Note categories",
			mcp.WithResourceDescription("The closed set of note categories with display labels."),
			mcp.WithMIMEType("application/json"),
		),
		s.readCategoriesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(apperr.UserMessage(err)), nil
}

func categoryArg(req mcp.CallToolRequest) models.Category {
	raw := req.GetString("category", "")
	if raw == "" {
		return ""
	}
	return models.ParseCategory(raw)
}

// loadError retries a failed load once and returns the error message that
// remains, if any.
func (s *Server) loadError(ctx context.Context) string {
	if s.ctrl.Err() == "" {
		return ""
	}
	_ = s.ctrl.Load(ctx)
	return s.ctrl.Err()
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if msg := s.loadError(ctx); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	return jsonResult(s.ctrl.Query("", categoryArg(req)))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if msg := s.loadError(ctx); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	return jsonResult(s.ctrl.Query(query, categoryArg(req)))
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))

	var in controller.Input
	if id != "" {
		existing, ok := s.ctrl.Get(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
		}
		in = controller.Input{
			Title:    existing.Title,
			Content:  existing.Content,
			Category: existing.Category,
			Tags:     existing.Tags,
		}
	}

	args := req.GetArguments()
	if _, ok := args["title"]; ok {
		in.Title = req.GetString("title", "")
	}
	if _, ok := args["content"]; ok {
		in.Content = req.GetString("content", "")
	}
	if _, ok := args["category"]; ok {
		in.Category = models.ParseCategory(req.GetString("category", ""))
	} else if id == "" {
		in.Category = models.CategorySnippet
	}
	if _, ok := args["tags"]; ok {
		in.Tags = req.GetStringSlice("tags", nil)
	}

	n, err := s.ctrl.Save(ctx, id, in)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(n)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	confirm := req.GetBool("confirm", false)

	deleted, err := s.ctrl.Delete(ctx, id, func(models.Note) bool { return confirm })
	if err != nil {
		return errorResult(err)
	}
	if !deleted {
		return mcp.NewToolResultText("not deleted: confirm was not true"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) extractNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) reloadNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ctrl.Load(ctx); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("reloaded: %d notes", len(s.ctrl.Notes()))), nil
}

func (s *Server) getSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.ctrl.Settings()
	return jsonResult(map[string]any{
		"storageMode": st.StorageMode,
		"apiUrl":      st.APIURL,
		"error":       s.ctrl.Err(),
		"notes":       len(s.ctrl.Notes()),
	})
}
