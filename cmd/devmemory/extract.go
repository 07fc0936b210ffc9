package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/extraction"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Read raw text from stdin and print the structured result as JSON",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			raw, err := io.ReadAll(cmd.Root().Reader)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			client := extraction.New(cfg.Extraction.ClientConfig(), nil)
			res, err := client.Extract(ctx, string(raw))
			if err != nil {
				return fmt.Errorf("%s", apperr.UserMessage(err))
			}

			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
