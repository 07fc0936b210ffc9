package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/devmemory/internal/models"
)

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change where notes are stored",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Usage: "LOCAL or API"},
			&cli.StringFlag{Name: "api-url", Usage: "Collection URL of the note service in API mode"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sess, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()
			ctrl := sess.Controller
			out := cmd.Root().Writer

			if !cmd.IsSet("mode") && !cmd.IsSet("api-url") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(ctrl.Settings()); err != nil {
					return err
				}
				if msg := ctrl.Err(); msg != "" {
					fmt.Fprintf(out, "error: %s\n", msg)
				}
				return nil
			}

			next := ctrl.Settings()
			if cmd.IsSet("mode") {
				next.StorageMode = models.StorageMode(strings.ToUpper(cmd.String("mode")))
			}
			if cmd.IsSet("api-url") {
				next.APIURL = cmd.String("api-url")
			}

			if err := ctrl.ApplySettings(ctx, next); err != nil {
				if msg := ctrl.Err(); msg != "" {
					return fmt.Errorf("settings saved, but %s", msg)
				}
				return err
			}
			fmt.Fprintf(out, "storage: %s, %d notes\n", next.StorageMode, len(ctrl.Notes()))
			return nil
		},
	}
}
