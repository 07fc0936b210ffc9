package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/extraction"
	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/models"
	"github.com/starford/devmemory/internal/storage"
	"github.com/starford/devmemory/internal/testutil"
)

type fakeExtractor struct {
	result *extraction.Result
	err    error
	calls  int
	// block, when set, holds Extract until it is closed or ctx is done.
	block chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, raw string) (*extraction.Result, error) {
	f.calls++
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

// countingService is a minimal remote note service that counts requests.
type countingService struct {
	mu    sync.Mutex
	notes map[string]models.Note
	calls int
}

func (s *countingService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	switch r.Method {
	case http.MethodGet:
		out := []models.Note{}
		for _, n := range s.notes {
			out = append(out, n)
		}
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		var n models.Note
		_ = json.NewDecoder(r.Body).Decode(&n)
		s.notes[n.ID] = n
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(n)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func clock(start int64) func() int64 {
	var mu sync.Mutex
	t := start
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		t++
		return t
	}
}

func ids() func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		i++
		return fmt.Sprintf("id-%d", i)
	}
}

func newLocal(t *testing.T, ex Extractor, opts ...Option) (*Controller, kvstore.Store) {
	t.Helper()
	kv := testutil.TestKV(t)
	f, err := storage.NewFacade(kv, models.DefaultSettings(), storage.RemoteOptions{})
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	opts = append([]Option{WithClock(clock(1000)), WithIDGenerator(ids())}, opts...)
	return New(f, ex, kv, nil, opts...), kv
}

func TestLoadSeedsEmptyLocalStore(t *testing.T) {
	ctx := context.Background()
	c, kv := newLocal(t, &fakeExtractor{})

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	notes := c.Notes()
	if len(notes) != 2 {
		t.Fatalf("len = %d, want 2", len(notes))
	}
	titles := map[string]models.Category{}
	for _, n := range notes {
		titles[n.Title] = n.Category
	}
	if titles["Maven Skip Tests"] != models.CategoryCommand || titles["Spring Boot Profile"] != models.CategoryConfig {
		t.Errorf("seeded = %v", titles)
	}

	persisted, err := storage.NewLocal(kv).GetAll(ctx)
	if err != nil || len(persisted) != 2 {
		t.Fatalf("persisted = %d notes, err %v", len(persisted), err)
	}
}

func TestLoadSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	c, kv := newLocal(t, &fakeExtractor{})
	local := storage.NewLocal(kv)
	for i, ts := range []int64{5, 30, 10} {
		_, _ = local.Save(ctx, models.Note{ID: fmt.Sprintf("n%d", i), Title: "t", Content: "c", LastModified: ts})
	}

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	notes := c.Notes()
	for i := 1; i < len(notes); i++ {
		if notes[i-1].LastModified < notes[i].LastModified {
			t.Fatalf("not sorted: %v", notes)
		}
	}
	if notes[0].ID != "n1" {
		t.Errorf("first = %s, want n1", notes[0].ID)
	}
}

func TestSaveCreatePrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	c, kv := newLocal(t, &fakeExtractor{}, WithoutSeed())
	_ = c.Load(ctx)

	n, err := c.Save(ctx, "", Input{Title: "Docker ps", Content: "docker ps -a", Category: "command", Tags: []string{" docker ", ""}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n.ID == "" || n.CreatedAt != n.LastModified || n.Category != models.CategoryCommand {
		t.Errorf("saved = %+v", n)
	}
	if len(n.Tags) != 1 || n.Tags[0] != "docker" {
		t.Errorf("tags = %v", n.Tags)
	}

	second, _ := c.Save(ctx, "", Input{Title: "b", Content: "b"})
	notes := c.Notes()
	if len(notes) != 2 || notes[0].ID != second.ID {
		t.Fatalf("notes = %v, want newest first", notes)
	}

	stored, _ := storage.NewLocal(kv).GetAll(ctx)
	if len(stored) != 2 {
		t.Errorf("stored = %d notes", len(stored))
	}
}

func TestSaveUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	c, _ := newLocal(t, &fakeExtractor{}, WithoutSeed())
	_ = c.Load(ctx)

	orig, _ := c.Save(ctx, "", Input{Title: "a", Content: "a"})
	other, _ := c.Save(ctx, "", Input{Title: "b", Content: "b"})

	upd, err := c.Save(ctx, orig.ID, Input{Title: "a2", Content: "a"})
	if err != nil {
		t.Fatalf("Save update: %v", err)
	}
	if upd.CreatedAt != orig.CreatedAt || upd.LastModified <= orig.LastModified {
		t.Errorf("updated = %+v, original = %+v", upd, orig)
	}
	notes := c.Notes()
	if len(notes) != 2 {
		t.Fatalf("duplicate entries: %v", notes)
	}
	if notes[0].ID != other.ID || notes[1].Title != "a2" {
		t.Errorf("update should replace in place: %v", notes)
	}
}

func TestSaveTrimsTitle(t *testing.T) {
	ctx := context.Background()
	c, kv := newLocal(t, &fakeExtractor{}, WithoutSeed())
	_ = c.Load(ctx)

	n, err := c.Save(ctx, "", Input{Title: "  padded\t", Content: "x"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n.Title != "padded" {
		t.Errorf("title = %q, want %q", n.Title, "padded")
	}
	stored, _ := storage.NewLocal(kv).GetAll(ctx)
	if len(stored) != 1 || stored[0].Title != "padded" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestSaveValidationSkipsBackend(t *testing.T) {
	svc := &countingService{notes: map[string]models.Note{}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	kv := testutil.TestKV(t)
	f, _ := storage.NewFacade(kv, models.AppSettings{StorageMode: models.StorageAPI, APIURL: srv.URL}, storage.RemoteOptions{})
	c := New(f, &fakeExtractor{}, kv, nil)

	for _, in := range []Input{{Title: "  ", Content: "x"}, {Title: "x", Content: "\n"}} {
		if _, err := c.Save(context.Background(), "", in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Save(%+v) = %v, want ErrValidation", in, err)
		}
	}
	if svc.calls != 0 {
		t.Errorf("backend called %d times", svc.calls)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	ctx := context.Background()
	c, kv := newLocal(t, &fakeExtractor{}, WithoutSeed())
	_ = c.Load(ctx)
	n, _ := c.Save(ctx, "", Input{Title: "a", Content: "a"})

	deleted, err := c.Delete(ctx, n.ID, func(got models.Note) bool {
		if got.Title != "a" {
			t.Errorf("confirm got %+v", got)
		}
		return false
	})
	if err != nil || deleted {
		t.Fatalf("declined delete = %v, %v", deleted, err)
	}
	if len(c.Notes()) != 1 {
		t.Fatal("declined delete removed the note")
	}

	deleted, err = c.Delete(ctx, n.ID, func(models.Note) bool { return true })
	if err != nil || !deleted {
		t.Fatalf("confirmed delete = %v, %v", deleted, err)
	}
	if len(c.Notes()) != 0 {
		t.Error("note still in memory")
	}
	stored, _ := storage.NewLocal(kv).GetAll(ctx)
	if len(stored) != 0 {
		t.Error("note still persisted")
	}

	if ok, err := c.Delete(ctx, n.ID, nil); err != nil || !ok {
		t.Errorf("repeated delete = %v, %v", ok, err)
	}
}

func TestFiltered(t *testing.T) {
	ctx := context.Background()
	c, _ := newLocal(t, &fakeExtractor{}, WithoutSeed())
	_ = c.Load(ctx)
	_, _ = c.Save(ctx, "", Input{Title: "Docker ps", Content: "docker ps -a", Category: models.CategoryCommand, Tags: []string{"docker"}})
	_, _ = c.Save(ctx, "", Input{Title: "Compose file", Content: "services:", Category: models.CategoryConfig, Tags: []string{"docker"}})
	_, _ = c.Save(ctx, "", Input{Title: "Git stash", Content: "git stash pop", Category: models.CategoryCommand})

	c.SetSearch("DOCKER")
	if got := c.Filtered(); len(got) != 2 {
		t.Errorf("search only = %d, want 2", len(got))
	}
	c.SetCategoryFilter(models.CategoryCommand)
	got := c.Filtered()
	if len(got) != 1 || got[0].Title != "Docker ps" {
		t.Errorf("search+filter = %v", got)
	}
	c.SetSearch("")
	c.SetCategoryFilter("")
	if got := c.Filtered(); len(got) != 3 {
		t.Errorf("no filter = %d, want 3", len(got))
	}
	if len(c.Notes()) != 3 {
		t.Error("filtering mutated the collection")
	}
}

func TestUnreachableRemoteThenFix(t *testing.T) {
	ctx := context.Background()
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	c, _ := newLocal(t, &fakeExtractor{}, WithoutSeed())
	_ = c.Load(ctx)
	_, _ = c.Save(ctx, "", Input{Title: "local", Content: "x"})

	err := c.ApplySettings(ctx, models.AppSettings{StorageMode: models.StorageAPI, APIURL: deadURL + "/api/notes"})
	if !errors.Is(err, apperr.ErrConnectivity) {
		t.Fatalf("ApplySettings = %v, want ErrConnectivity", err)
	}
	if c.Err() == "" {
		t.Fatal("expected error state")
	}
	if len(c.Notes()) != 0 {
		t.Error("stale notes kept after failed load")
	}

	svc := &countingService{notes: map[string]models.Note{"r1": {ID: "r1", Title: "remote", Content: "y", Category: models.CategoryLink}}}
	live := httptest.NewServer(svc)
	defer live.Close()

	if err := c.ApplySettings(ctx, models.AppSettings{StorageMode: models.StorageAPI, APIURL: live.URL}); err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	if c.Err() != "" {
		t.Errorf("error state not cleared: %q", c.Err())
	}
	notes := c.Notes()
	if len(notes) != 1 || notes[0].ID != "r1" {
		t.Errorf("notes = %v", notes)
	}
}

func TestRemoteEmptyIsNotSeeded(t *testing.T) {
	svc := &countingService{notes: map[string]models.Note{}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	kv := testutil.TestKV(t)
	f, _ := storage.NewFacade(kv, models.AppSettings{StorageMode: models.StorageAPI, APIURL: srv.URL}, storage.RemoteOptions{})
	c := New(f, &fakeExtractor{}, kv, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Notes()) != 0 || len(svc.notes) != 0 {
		t.Error("remote backend should not be seeded")
	}
}

func TestApplySettingsRejectsInvalid(t *testing.T) {
	c, kv := newLocal(t, &fakeExtractor{}, WithoutSeed())
	err := c.ApplySettings(context.Background(), models.AppSettings{StorageMode: models.StorageAPI, APIURL: "not a url"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if c.Settings().StorageMode != models.StorageLocal {
		t.Error("invalid settings were applied")
	}
	if got := storage.LoadSettings(kv); got.StorageMode != models.StorageLocal {
		t.Error("invalid settings were persisted")
	}
}
