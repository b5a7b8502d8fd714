package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cooketh/flow/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string
	formats string
	noCache bool
	pipeline.Options
}

// renderCommand creates the render command for exporting documents.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [map.json]",
		Short: "Render an interchange document to SVG, PNG, JPEG, PDF or Graphviz",
		Long: `Render an interchange document.

Formats (comma-separated with -f):
  svg       vector image (default)
  png       raster image, scaled by --scale
  jpeg      raster image without transparency
  pdf       via rsvg-convert, which must be on PATH
  json      interchange document
  dot       Graphviz source
  graphviz  SVG laid out by Graphviz

Without --style the stored node positions are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(opts.formats)
			if opts.Theme == "" {
				opts.Theme = c.cfg.Editor.Theme
			}
			if err := opts.Options.Validate(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.Style, "style", "s", "", "re-layout first: mindmap, tree, flowchart, concept")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "background theme: light, dark (default from config)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster scale factor")
	cmd.Flags().Float64Var(&opts.Padding, "padding", 0, "margin around the content (default 50)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "TB", "Graphviz rank direction: TB, LR")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include node kinds in Graphviz labels")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

// basePath derives the base output path from the output and input file
// paths, stripping a known format extension from output.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil || ext == ".jpg" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns where format is written.
func outputPath(opts *renderOpts, input, format string) string {
	if len(opts.Formats) == 1 && opts.output != "" {
		return opts.output
	}
	base := basePath(opts.output, input)
	if format == pipeline.FormatJSON && opts.output == "" {
		base += ".rendered"
	}
	return base + "." + pipeline.Extension(format)
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	doc, err := runner.Import(ctx, input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %q: %d nodes, %d edges", doc.Title, len(doc.Graph.Nodes), len(doc.Graph.Edges))

	sp := startSpinner(ctx, "Rendering...")
	res, err := runner.Execute(ctx, doc, opts.Options)
	if err != nil {
		sp.fail("Render failed")
		return err
	}
	sp.stop()

	printSuccess("Rendered %d format(s)", len(res.Artifacts))
	for _, format := range opts.Formats {
		path := outputPath(opts, input, format)
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, cacheSource(res.CacheInfo.RenderHit))
	return nil
}
