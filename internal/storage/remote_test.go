package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/models"
)

// fakeNoteService is a minimal in-memory implementation of the remote contract.
type fakeNoteService struct {
	mu      sync.Mutex
	notes   map[string]models.Note
	seq     int
	lastReq *http.Request
}

func newFakeNoteService() *fakeNoteService {
	return &fakeNoteService{notes: map[string]models.Note{}}
}

func (f *fakeNoteService) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func (f *fakeNoteService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = r

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/notes"), "/")
	switch {
	case r.Method == http.MethodGet && id == "":
		out := []models.Note{}
		for _, n := range f.notes {
			out = append(out, n)
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost && id == "":
		var n models.Note
		_ = json.NewDecoder(r.Body).Decode(&n)
		f.seq++
		n.ID = "srv-" + string(rune('0'+f.seq))
		n.CreatedAt, n.LastModified = 1000, 1000
		f.notes[n.ID] = n
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(n)
	case r.Method == http.MethodPut:
		if _, ok := f.notes[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		var n models.Note
		_ = json.NewDecoder(r.Body).Decode(&n)
		n.ID = id
		n.LastModified = 2000
		f.notes[id] = n
		_ = json.NewEncoder(w).Encode(n)
	case r.Method == http.MethodDelete:
		delete(f.notes, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRemote_CRUD(t *testing.T) {
	ctx := context.Background()
	fake := newFakeNoteService()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	r := NewRemote(srv.URL+"/api/notes/", RemoteOptions{})

	created, err := r.Create(ctx, models.Note{ID: "client-id", Title: "t", Content: "c", Category: models.CategoryCommand})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "srv-1" || created.CreatedAt != 1000 {
		t.Errorf("Create should return server fields, got %+v", created)
	}

	created.Title = "t2"
	updated, err := r.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.LastModified != 2000 || updated.Title != "t2" {
		t.Errorf("updated = %+v", updated)
	}
	if fake.last().URL.Path != "/api/notes/srv-1" {
		t.Errorf("PUT path = %q", fake.last().URL.Path)
	}

	notes, err := r.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("len = %d, want 1", len(notes))
	}

	if err := r.Delete(ctx, "srv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	notes, _ = r.GetAll(ctx)
	if len(notes) != 0 {
		t.Errorf("len after delete = %d", len(notes))
	}
}

func TestRemote_StatusFailureIsConnectivityError(t *testing.T) {
	srv := httptest.NewServer(newFakeNoteService())
	defer srv.Close()

	r := NewRemote(srv.URL+"/api/notes", RemoteOptions{})
	_, err := r.Update(context.Background(), models.Note{ID: "missing", Title: "t", Content: "c"})
	if !errors.Is(err, apperr.ErrConnectivity) {
		t.Fatalf("err = %v, want ErrConnectivity", err)
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should carry status and server message: %v", err)
	}
}

func TestRemote_UnreachableIsConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemote(url+"/api/notes", RemoteOptions{}).GetAll(context.Background())
	if !errors.Is(err, apperr.ErrConnectivity) {
		t.Fatalf("err = %v, want ErrConnectivity", err)
	}
}

func TestRemote_CoercesUnknownCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","title":"t","content":"c","category":"BOGUS","tags":[]}]`))
	}))
	defer srv.Close()

	notes, err := NewRemote(srv.URL, RemoteOptions{}).GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if notes[0].Category != models.CategorySnippet {
		t.Errorf("category = %q", notes[0].Category)
	}
}

func TestRemote_SendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := NewRemote(srv.URL, RemoteOptions{Token: "s3cret"}).GetAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestRemote_EmptyBodyIsConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, RemoteOptions{})
	if _, err := r.Create(context.Background(), models.Note{Title: "t", Content: "c"}); !errors.Is(err, apperr.ErrConnectivity) {
		t.Errorf("Create err = %v, want ErrConnectivity", err)
	}
	if _, err := r.GetAll(context.Background()); !errors.Is(err, apperr.ErrConnectivity) {
		t.Errorf("GetAll err = %v, want ErrConnectivity", err)
	}
	if err := r.Delete(context.Background(), "x"); err != nil {
		t.Errorf("Delete with empty body should succeed: %v", err)
	}
}

func TestRemote_CreateWithoutIDIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"title":"t","content":"c"}`))
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, RemoteOptions{}).Create(context.Background(), models.Note{Title: "t", Content: "c"})
	if !errors.Is(err, apperr.ErrConnectivity) || !strings.Contains(err.Error(), "no id") {
		t.Fatalf("err = %v, want ErrConnectivity about missing id", err)
	}
}
