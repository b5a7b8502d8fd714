package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	flowio "github.com/cooketh/flow/pkg/io"
	"github.com/cooketh/flow/pkg/layout"
	"github.com/cooketh/flow/pkg/pipeline"
)

// layoutCommand creates the layout command for re-positioning a document.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{Style: string(layout.StyleMindmap)}

	cmd := &cobra.Command{
		Use:   "layout [map.json]",
		Short: "Compute node positions for an interchange document",
		Long: `Compute node positions for an interchange document.

The layout command reads a {title, nodes, edges} JSON document, places every
node with the chosen algorithm and writes the result in the same format.

Styles:
  mindmap    radial rings around the root
  tree       top-down hierarchy
  flowchart  vertical steps, decisions branch sideways
  concept    radial, like mindmap

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.Style, "style", "s", opts.Style, "layout style: mindmap, tree, flowchart, concept")

	return cmd
}

// runLayout loads the document, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := runner.Import(ctx, input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}

	sp := startSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Style))

	g, cacheHit, err := runner.LayoutWithCacheInfo(ctx, doc.Graph, opts)
	if err != nil {
		sp.fail("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	sp.stop()

	if sp.interrupted() {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}

	doc.Graph = g
	if err := flowio.ExportJSON(doc, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(g.Nodes), len(g.ValidEdges()), cacheSource(cacheHit))
	fmt.Println()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
