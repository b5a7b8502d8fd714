// Package pipeline runs the import → layout → render chain shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Import: read an interchange JSON document (pkg/io)
//  2. Layout: optionally reposition nodes with a layout style
//  3. Render: produce artifacts in one or more formats
//
// Each stage can be run independently or as part of the complete pipeline.
// Layouts and artifacts are cached by the content hash of the graph, so
// re-exporting an unchanged document is a cache hit.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Style:   "tree",
//	    Formats: []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cooketh/flow/pkg/cache"
	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/layout"
	"github.com/cooketh/flow/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultScale is the pixel density of raster exports.
	DefaultScale = 2.0

	// DefaultTheme is the export background.
	DefaultTheme = render.ThemeLight
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatJPEG     = "jpeg"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz" // Graphviz-laid-out SVG
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatPNG, FormatJPEG, FormatPDF, FormatJSON, FormatDOT, FormatGraphviz}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:      "image/svg+xml",
	FormatPNG:      "image/png",
	FormatJPEG:     "image/jpeg",
	FormatPDF:      "application/pdf",
	FormatJSON:     "application/json",
	FormatDOT:      "text/vnd.graphviz",
	FormatGraphviz: "image/svg+xml",
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatGraphviz:
		return "gv.svg"
	case FormatJPEG:
		return "jpg"
	}
	return format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Layout options. An empty Style keeps the stored positions.
	Style string `json:"style,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Theme     string   `json:"theme,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	Padding   float64  `json:"padding,omitempty"`
	Direction string   `json:"direction,omitempty"` // graphviz rankdir
	Detailed  bool     `json:"detailed,omitempty"`  // graphviz labels include kinds

	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// GraphHash is the content hash of the rendered graph.
	GraphHash string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // every artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks a layout style name. Empty means "keep positions".
func ValidateStyle(style string) error {
	if style == "" {
		return nil
	}
	if _, err := layout.ParseStyle(style); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStyle, err, "invalid style")
	}
	return nil
}

// ValidateTheme checks an export theme.
func ValidateTheme(theme string) error {
	switch render.Theme(theme) {
	case render.ThemeLight, render.ThemeDark:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid theme: %q (must be one of: light, dark)", theme)
}

// =============================================================================
// Options Methods
// =============================================================================

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = string(DefaultTheme)
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Padding <= 0 {
		o.Padding = render.DefaultPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every field.
func (o *Options) Validate() error {
	o.SetRenderDefaults()
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateTheme(o.Theme)
}

// LayoutStyle returns the parsed layout style and whether one was requested.
func (o *Options) LayoutStyle() (layout.Style, bool) {
	if o.Style == "" {
		return "", false
	}
	st, err := layout.ParseStyle(o.Style)
	return st, err == nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	st, _ := o.LayoutStyle()
	return cache.LayoutKeyOpts{Style: string(st)}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Theme: o.Theme, Padding: o.Padding}
	switch format {
	case FormatPNG, FormatJPEG:
		k.Scale = o.Scale
	case FormatDOT, FormatGraphviz:
		k = cache.ArtifactKeyOpts{Format: format, Direction: o.Direction}
		if o.Detailed {
			k.Direction += "+detailed"
		}
	case FormatJSON:
		k = cache.ArtifactKeyOpts{Format: format}
	}
	return k
}

func (o *Options) renderOptions() ([]render.SVGOption, []render.RasterOption) {
	theme := render.Theme(o.Theme)
	return []render.SVGOption{render.WithTheme(theme), render.WithPadding(o.Padding)},
		[]render.RasterOption{render.WithRasterTheme(theme), render.WithRasterPadding(o.Padding), render.WithScale(o.Scale)}
}

// String summarizes the options for logs.
func (o Options) String() string {
	return fmt.Sprintf("style=%q formats=%v theme=%s", o.Style, o.Formats, o.Theme)
}
