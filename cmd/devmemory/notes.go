package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/starford/devmemory/internal/apperr"
	"github.com/starford/devmemory/internal/controller"
	"github.com/starford/devmemory/internal/models"
)

func categoryUsage() string {
	return "One of " + strings.Join(models.CategoryNames(), ", ")
}

func noteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
		&cli.StringFlag{Name: "content", Usage: "Note content, - reads stdin"},
		&cli.StringFlag{Name: "category", Usage: categoryUsage()},
		&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match title, content or tags"},
			&cli.StringFlag{Name: "category", Usage: categoryUsage()},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sess, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()
			ctrl := sess.Controller

			if msg := ctrl.Err(); msg != "" {
				return fmt.Errorf("%s (check storage with `devmemory settings`)", msg)
			}

			ctrl.SetSearch(cmd.String("search"))
			if c := cmd.String("category"); c != "" {
				ctrl.SetCategoryFilter(models.ParseCategory(c))
			}
			printNotes(cmd.Root().Writer, ctrl.Filtered())
			return nil
		},
	}
}

func printNotes(w io.Writer, notes []models.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "no notes")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tTITLE\tTAGS")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.Category, n.Title, strings.Join(n.Tags, ","))
	}
	_ = tw.Flush()
}

func readContent(cmd *cli.Command) (string, error) {
	content := cmd.String("content")
	if content != "-" {
		return content, nil
	}
	data, err := io.ReadAll(cmd.Root().Reader)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func addCommand() *cli.Command {
	flags := append(noteFlags(), &cli.BoolFlag{
		Name:  "ai",
		Usage: "Structure the content with Gemini first; explicit flags override the result",
	})
	return &cli.Command{
		Name:  "add",
		Usage: "Create a note",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			content, err := readContent(cmd)
			if err != nil {
				return err
			}

			sess, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()
			ctrl := sess.Controller

			if err := ctrl.OpenDraft(""); err != nil {
				return err
			}
			defer ctrl.CloseDraft()
			_ = ctrl.EditDraft(func(d *controller.Draft) { d.Content = content })

			if cmd.Bool("ai") {
				if err := ctrl.AnalyzeDraft(ctx); err != nil {
					return fmt.Errorf("%s", apperr.UserMessage(err))
				}
			}
			_ = ctrl.EditDraft(func(d *controller.Draft) {
				if cmd.IsSet("title") {
					d.Title = cmd.String("title")
				}
				if cmd.IsSet("category") {
					d.Category = models.ParseCategory(cmd.String("category"))
				}
				if cmd.IsSet("tags") {
					d.Tags = cmd.String("tags")
				}
			})

			n, err := ctrl.SaveDraft(ctx)
			if err != nil {
				return fmt.Errorf("%s", apperr.UserMessage(err))
			}
			fmt.Fprintf(cmd.Root().Writer, "created %s (%s) %s\n", n.ID, n.Category, n.Title)
			return nil
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Update a note; omitted fields keep their values",
		ArgsUsage: "ID",
		Flags:     noteFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("note id is required")
			}

			sess, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()
			ctrl := sess.Controller

			existing, ok := ctrl.Get(id)
			if !ok {
				if msg := ctrl.Err(); msg != "" {
					return fmt.Errorf("%s", msg)
				}
				return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
			}

			in := controller.Input{
				Title:    existing.Title,
				Content:  existing.Content,
				Category: existing.Category,
				Tags:     existing.Tags,
			}
			if cmd.IsSet("title") {
				in.Title = cmd.String("title")
			}
			if cmd.IsSet("content") {
				if in.Content, err = readContent(cmd); err != nil {
					return err
				}
			}
			if cmd.IsSet("category") {
				in.Category = models.ParseCategory(cmd.String("category"))
			}
			if cmd.IsSet("tags") {
				in.Tags = models.ParseTags(cmd.String("tags"))
			}

			n, err := ctrl.Save(ctx, id, in)
			if err != nil {
				return fmt.Errorf("%s", apperr.UserMessage(err))
			}
			fmt.Fprintf(cmd.Root().Writer, "updated %s (%s) %s\n", n.ID, n.Category, n.Title)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a note",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("note id is required")
			}

			sess, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.Root().Writer
			confirm := func(n models.Note) bool {
				if cmd.Bool("yes") {
					return true
				}
				label := n.Title
				if label == "" {
					label = n.ID
				}
				fmt.Fprintf(out, "Delete %q? [y/N] ", label)
				line, _ := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				return answer == "y" || answer == "yes"
			}

			deleted, err := sess.Controller.Delete(ctx, id, confirm)
			if err != nil {
				return fmt.Errorf("%s", apperr.UserMessage(err))
			}
			if !deleted {
				fmt.Fprintln(out, "cancelled")
				return nil
			}
			fmt.Fprintf(out, "deleted %s\n", id)
			return nil
		},
	}
}
