package pipeline

import (
	"bytes"
	"fmt"

	"github.com/cooketh/flow/pkg/diagram"
	flowio "github.com/cooketh/flow/pkg/io"
	"github.com/cooketh/flow/pkg/render"
	"github.com/cooketh/flow/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. Options must
// already carry defaults (see [Options.SetRenderDefaults]).
func Render(doc diagram.Document, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := RenderFormat(doc, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderFormat renders a single format.
func RenderFormat(doc diagram.Document, format string, opts Options) ([]byte, error) {
	svgOpts, rasterOpts := opts.renderOptions()
	scene := func() render.Scene { return render.NewScene(doc.Title, doc.Graph) }
	dot := func() string {
		return nodelink.ToDOT(doc.Title, doc.Graph, nodelink.Options{Direction: opts.Direction, Detailed: opts.Detailed})
	}

	switch format {
	case FormatSVG:
		return render.RenderSVG(scene(), svgOpts...), nil
	case FormatPNG:
		return render.RenderPNG(scene(), rasterOpts...)
	case FormatJPEG:
		return render.RenderJPEG(scene(), rasterOpts...)
	case FormatPDF:
		return render.ToPDF(render.RenderSVG(scene(), svgOpts...))
	case FormatJSON:
		var buf bytes.Buffer
		if err := flowio.WriteJSON(doc, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(dot()), nil
	case FormatGraphviz:
		return nodelink.RenderSVG(dot())
	default:
		return nil, ValidateFormat(format)
	}
}
