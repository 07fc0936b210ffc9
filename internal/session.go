package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/devmemory/internal/controller"
	"github.com/starford/devmemory/internal/extraction"
	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/storage"
)

// Session is a loaded controller plus the resources behind it.
type Session struct {
	Config     *Config
	Logger     *slog.Logger
	KV         kvstore.Store
	Facade     *storage.Facade
	Extractor  *extraction.Client
	Controller *controller.Controller
}

// OpenSession opens the local store, restores the persisted settings and
// loads the note collection. A failed load is not an error here; it is
// reported through Controller.Err.
func OpenSession(ctx context.Context, opts ...Option) (*Session, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger := newLogger(cfg, out)

	kv, err := kvstore.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	settings := storage.LoadSettings(kv)
	facade, err := storage.NewFacade(kv, settings, storage.RemoteOptions{
		Timeout: cfg.Remote.Timeout,
		Token:   cfg.Remote.Token,
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	extractor := extraction.New(cfg.Extraction.ClientConfig(), logger)
	ctrl := controller.New(facade, extractor, kv, logger)
	_ = ctrl.Load(ctx)

	logger.Debug("session opened",
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("storage_mode", string(settings.StorageMode)),
	)

	return &Session{
		Config:     cfg,
		Logger:     logger,
		KV:         kv,
		Facade:     facade,
		Extractor:  extractor,
		Controller: ctrl,
	}, nil
}

// Close releases the local store.
func (s *Session) Close() error {
	return s.KV.Close()
}

// Resync picks up settings and notes changed by another process.
func (s *Session) Resync(ctx context.Context, key string) {
	if key == kvstore.KeySettings {
		settings := storage.LoadSettings(s.KV)
		if settings != s.Facade.Settings() {
			if err := s.Facade.Configure(settings); err != nil {
				s.Logger.Warn("ignoring external settings change", slog.String("error", err.Error()))
				return
			}
		}
	}
	if err := s.Controller.Load(ctx); err != nil {
		return
	}
	s.Logger.Info("reloaded after external change", slog.String("key", key))
}
