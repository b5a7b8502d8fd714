package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	flowio "github.com/cooketh/flow/pkg/io"
	"github.com/cooketh/flow/pkg/layout"
	"github.com/cooketh/flow/pkg/storage"
)

type generateOpts struct {
	style  string
	output string
	save   bool
}

// generateCommand creates the generate command for building a map from a
// text prompt.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a map from a prompt",
		Long: `Generate a map from a text prompt.

Without a configured generator endpoint (or when the generator fails) a
built-in starter graph is used so there is always something to edit.`,
		Example: `  ` + appName + ` generate "launch plan for a bakery"
  ` + appName + ` generate "onboarding" --style flowchart -o onboarding.json
  ` + appName + ` generate "study topics" --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.style, "style", "s", string(layout.StyleMindmap), "layout style: mindmap, tree, flowchart, concept")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <title>.json)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the map in the workspace instead of writing a file")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, prompt string, opts generateOpts) error {
	style, err := layout.ParseStyle(opts.style)
	if err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	logger.Debug("generating", "style", style, "prompt_len", len(prompt))
	prog := newProgress(logger)

	sp := startSpinner(ctx, "Generating map...")
	res, err := c.newGenerator().Generate(ctx, prompt, style)
	if err != nil {
		sp.fail("Generation failed")
		return err
	}
	sp.stop()
	prog.done(fmt.Sprintf("Generated %d nodes", len(res.Document.Graph.Nodes)))

	doc := res.Document
	src := sourceFresh
	if res.Fallback {
		src = sourceFallback
		printWarning("Generator unavailable, using the starter graph")
	}

	if opts.save {
		return c.withWorkspace(ctx, func(ws *storage.Workspace) error {
			saved, err := ws.Create(ctx, doc)
			if err != nil {
				return err
			}
			printSuccess("Generated %s", StyleHighlight.Render(saved.Title))
			printStats(len(saved.Data.Nodes), len(saved.Data.Edges), src)
			printDetail("ID: %s", saved.ID)
			printNextStep("Edit", appName+" edit "+saved.ID)
			return nil
		})
	}

	path := opts.output
	if path == "" {
		path = flowio.FileName(doc.Title, "json")
	}
	if err := flowio.ExportJSON(doc, path); err != nil {
		return err
	}
	printSuccess("Generated %s", StyleHighlight.Render(doc.Title))
	printStats(len(doc.Graph.Nodes), len(doc.Graph.Edges), src)
	printFile(path)
	printNextStep("Render", appName+" render "+path+" -f svg,png")
	return nil
}
