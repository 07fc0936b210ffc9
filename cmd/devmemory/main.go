package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/devmemory/internal"
	pkgconfig "github.com/starford/devmemory/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func openSession(ctx context.Context, cmd *cli.Command) (*internal.Session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.OpenSession(ctx, internal.WithConfig(cfg), internal.WithLogOutput(cmd.Root().ErrWriter))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "devmemory",
		Usage:   "Capture, tag and search short technical notes: commands, snippets, configs and error fixes",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			addCommand(),
			editCommand(),
			deleteCommand(),
			extractCommand(),
			settingsCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func main() {
	app := newApp()
	app.ErrWriter = os.Stderr

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
