package internal

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/mcpserver"
)

// RunMCP serves the MCP tools on stdin/stdout until stdin closes.
// With the file store driver, external edits to the store are picked up.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	sess, err := OpenSession(ctx, opts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := mcpserver.New(sess.Controller, sess.Extractor, app.version)

	ctx, cancel := context.WithCancel(ctx)
	g, gCtx := errgroup.WithContext(ctx)

	if fs, ok := sess.KV.(*kvstore.FS); ok {
		g.Go(func() error {
			return kvstore.Watch(gCtx, fs.Root(), sess.Logger, func(key string) {
				sess.Resync(gCtx, key)
			})
		})
	}

	g.Go(func() error {
		defer cancel()
		sess.Logger.Info("MCP server starting", slog.String("version", app.version))
		return srv.ServeStdio()
	})

	return g.Wait()
}
