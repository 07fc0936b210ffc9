// Package extraction turns raw pasted text into a structured note draft using
// the Gemini API.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/models"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const systemPrompt = `You are an assistant for a software developer's personal knowledge base.
Analyze the raw text the user pasted (a terminal command, a code snippet, an error log, a config value, a link or a procedure).
Produce:
- title: a short, precise title.
- category: exactly one of COMMAND, SNIPPET, PROCEDURE, LINK, CONFIG, ERROR_FIX.
- formattedContent: the content cleaned up. Keep code and commands verbatim, remove prompt characters and noise, use Markdown for procedures.
- tags: 2 to 5 short lowercase technical tags (language, tool, framework).
Answer with the JSON object only.`

// Result is the structured form of a piece of raw text.
type Result struct {
	Title            string          `json:"title"`
	Category         models.Category `json:"category"`
	FormattedContent string          `json:"formattedContent"`
	Tags             []string        `json:"tags"`
}

// Config holds the extraction client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the Gemini API with a fixed instruction and output schema.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a client. Missing credentials are reported on the first
// Extract call, not here, so persistence keeps working without a key.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Extract sends raw to the model and parses its structured reply.
func (c *Client) Extract(ctx context.Context, raw string) (*Result, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: no Gemini API key configured", apperr.ErrConfiguration)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: nothing to analyze", apperr.ErrValidation)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	cc := &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(raw), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("extraction: generate content: %w", err)
	}
	c.logger.Debug("extraction completed",
		slog.String("model", c.cfg.Model),
		slog.Int("input_len", len(raw)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return ParseReply(resp.Text())
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":            {Type: genai.TypeString},
			"category":         {Type: genai.TypeString, Enum: models.CategoryNames()},
			"formattedContent": {Type: genai.TypeString},
			"tags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"title", "category", "formattedContent", "tags"},
	}
}

type reply struct {
	Title            *string   `json:"title"`
	Category         *string   `json:"category"`
	FormattedContent *string   `json:"formattedContent"`
	Tags             *[]string `json:"tags"`
}

// ParseReply decodes the model's text into a Result. Code fences around the
// JSON are tolerated; the category is coerced and tags are trimmed.
func ParseReply(text string) (*Result, error) {
	text = stripFences(text)
	if text == "" {
		return nil, apperr.ErrEmptyResponse
	}

	var r reply
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedResponse, err)
	}
	switch {
	case r.Title == nil:
		return nil, fmt.Errorf("%w: missing title", apperr.ErrMalformedResponse)
	case r.Category == nil:
		return nil, fmt.Errorf("%w: missing category", apperr.ErrMalformedResponse)
	case r.FormattedContent == nil:
		return nil, fmt.Errorf("%w: missing formattedContent", apperr.ErrMalformedResponse)
	case r.Tags == nil:
		return nil, fmt.Errorf("%w: missing tags", apperr.ErrMalformedResponse)
	}

	tags := []string{}
	for _, t := range *r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &Result{
		Title:            strings.TrimSpace(*r.Title),
		Category:         models.ParseCategory(*r.Category),
		FormattedContent: *r.FormattedContent,
		Tags:             tags,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
