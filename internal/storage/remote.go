package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/models"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteOptions tunes the HTTP client used in API mode.
type RemoteOptions struct {
	Timeout time.Duration
	// Token, when set, is sent as a Bearer token.
	Token string
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// Remote is a CRUD client for an external note service. Each call is a single
// round trip: no retries, no caching.
type Remote struct {
	baseURL string
	token   string
	client  *http.Client
}

type remoteError struct {
	Error string `json:"error"`
}

// NewRemote creates a client for the note collection at baseURL.
func NewRemote(baseURL string, opts RemoteOptions) *Remote {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRemoteTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.Token,
		client:  client,
	}
}

// Name implements Backend.
func (r *Remote) Name() string { return "api" }

// BaseURL returns the collection root.
func (r *Remote) BaseURL() string { return r.baseURL }

// GetAll lists the collection (GET {base}).
func (r *Remote) GetAll(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := r.do(ctx, http.MethodGet, r.baseURL, nil, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

// Create posts a draft (POST {base}) and returns the server's version of it.
func (r *Remote) Create(ctx context.Context, n models.Note) (models.Note, error) {
	var out models.Note
	if err := r.do(ctx, http.MethodPost, r.baseURL, n, &out); err != nil {
		return models.Note{}, err
	}
	if out.ID == "" {
		return models.Note{}, fmt.Errorf("%w: POST %s: response has no id", apperr.ErrConnectivity, r.baseURL)
	}
	return out, nil
}

// Update replaces a note (PUT {base}/{id}) and returns the persisted row.
func (r *Remote) Update(ctx context.Context, n models.Note) (models.Note, error) {
	var out models.Note
	target := r.itemURL(n.ID)
	if err := r.do(ctx, http.MethodPut, target, n, &out); err != nil {
		return models.Note{}, err
	}
	if out.ID == "" {
		return models.Note{}, fmt.Errorf("%w: PUT %s: response has no id", apperr.ErrConnectivity, target)
	}
	return out, nil
}

// Delete removes a note (DELETE {base}/{id}).
func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, r.itemURL(id), nil, nil)
}

func (r *Remote) itemURL(id string) string {
	return r.baseURL + "/" + url.PathEscape(id)
}

func (r *Remote) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("storage: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperr.ErrConnectivity, method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperr.ErrConnectivity, method, target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: read response: %v", apperr.ErrConnectivity, method, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remoteErr remoteError
		if json.Unmarshal(respBody, &remoteErr) == nil && remoteErr.Error != "" {
			return fmt.Errorf("%w: %s %s: status %d: %s", apperr.ErrConnectivity, method, target, resp.StatusCode, remoteErr.Error)
		}
		return fmt.Errorf("%w: %s %s: status %d", apperr.ErrConnectivity, method, target, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return fmt.Errorf("%w: %s %s: empty response body", apperr.ErrConnectivity, method, target)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %v", apperr.ErrConnectivity, method, target, err)
	}
	return nil
}
