package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cooketh/flow/pkg/diagram"
	flowio "github.com/cooketh/flow/pkg/io"
	"github.com/cooketh/flow/pkg/pipeline"
	"github.com/cooketh/flow/pkg/storage"
)

// docsCommand creates the document workspace commands.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"maps"},
		Short:   "Manage stored maps",
	}
	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsShowCommand())
	cmd.AddCommand(c.docsCreateCommand())
	cmd.AddCommand(c.docsDeleteCommand())
	cmd.AddCommand(c.docsDuplicateCommand())
	cmd.AddCommand(c.docsImportCommand())
	cmd.AddCommand(c.docsExportCommand())
	return cmd
}

// withWorkspace opens the workspace for the duration of fn.
func (c *CLI) withWorkspace(ctx context.Context, fn func(*storage.Workspace) error) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Store().Close()
	return fn(ws)
}

func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List maps, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				list, err := ws.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No maps yet")
					printNextStep("Create one", appName+" generate \"my idea\" --save")
					return nil
				}
				fmt.Println(docsTable(list, -1))
				printDetail("%d of %d maps", len(list), c.cfg.Storage.WorkspaceLimit)
				return nil
			})
		},
	}
}

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

// docsTable renders list as a table, highlighting row current.
func docsTable(list []storage.Meta, current int) string {
	rows := make([][]string, len(list))
	for i, m := range list {
		cursor := "  "
		if i == current {
			cursor = "▸ "
		}
		rows[i] = []string{cursor, m.Title, m.ID, formatRelativeTime(m.UpdatedAt)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Title", "ID", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return tableHeaderStyle
			case row == current:
				return listSelectedStyle
			case col == 2 || col == 3:
				return listDimStyle
			}
			return listNormalStyle
		}).
		Render()
}

func (c *CLI) docsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a map's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				doc, err := ws.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printKeyValue("Title", doc.Title)
				printKeyValue("ID", doc.ID)
				printKeyValue("Nodes", strconv.Itoa(len(doc.Data.Nodes)))
				printKeyValue("Edges", strconv.Itoa(len(doc.Data.ValidEdges())))
				printKeyValue("Comments", strconv.Itoa(len(doc.Comments)))
				printKeyValue("Created", doc.CreatedAt.Local().Format(time.DateTime))
				printKeyValue("Updated", doc.UpdatedAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}

func (c *CLI) docsCreateCommand() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				doc, err := ws.Create(cmd.Context(), diagram.Document{Title: title})
				if err != nil {
					return err
				}
				printSuccess("Created %s", StyleHighlight.Render(doc.Title))
				printDetail("ID: %s", doc.ID)
				printNextStep("Edit", appName+" edit "+doc.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", storage.DefaultTitle, "map title")
	return cmd
}

func (c *CLI) docsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete maps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				for _, id := range args {
					if err := ws.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

func (c *CLI) docsDuplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a map (without comments)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				doc, err := ws.Duplicate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess("Created %s", StyleHighlight.Render(doc.Title))
				printDetail("ID: %s", doc.ID)
				return nil
			})
		},
	}
}

func (c *CLI) docsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <map.json>",
		Short: "Store an interchange document as a new map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := flowio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				saved, err := ws.Create(cmd.Context(), doc)
				if err != nil {
					return err
				}
				printSuccess("Imported %s", StyleHighlight.Render(saved.Title))
				printStats(len(saved.Data.Nodes), len(saved.Data.Edges), sourceSaved)
				printDetail("ID: %s", saved.ID)
				return nil
			})
		},
	}
}

func (c *CLI) docsExportCommand() *cobra.Command {
	var (
		format string
		output string
		theme  string
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme == "" {
				theme = c.cfg.Editor.Theme
			}
			opts := pipeline.Options{Formats: []string{format}, Theme: theme}
			if err := opts.Validate(); err != nil {
				return err
			}
			return c.withWorkspace(cmd.Context(), func(ws *storage.Workspace) error {
				stored, err := ws.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				runner, err := c.newRunner(false)
				if err != nil {
					return err
				}
				defer runner.Close()

				doc := stored.Diagram()
				artifacts, err := runner.Render(cmd.Context(), doc, opts)
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = flowio.FileName(doc.Title, pipeline.Extension(format))
				}
				if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
					return err
				}
				printSuccess("Exported %s", StyleHighlight.Render(doc.Title))
				printFile(path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatJSON, "json, svg, png, jpeg, pdf, dot, graphviz")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <title>.<ext>)")
	cmd.Flags().StringVar(&theme, "theme", "", "background theme: light, dark")
	return cmd
}
