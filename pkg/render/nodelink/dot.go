package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Direction is the Graphviz rankdir: "TB" (default) or "LR".
	Direction string

	// Detailed appends each node's kind to its label.
	Detailed bool
}

// ToDOT converts a graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(title string, g diagram.Graph, opts Options) string {
	dir := opts.Direction
	if dir != "LR" {
		dir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", title)
	}
	buf.WriteString("  node [shape=box, style=\"filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#94a3b8\", fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.ValidEdges() {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n diagram.Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if detailed && n.Kind != "" {
		label += "\n(" + string(n.Kind) + ")"
	}
	return label
}

var shapes = map[diagram.Shape]string{
	diagram.ShapeRectangle: "box",
	diagram.ShapeRounded:   "box",
	diagram.ShapeCircle:    "ellipse",
	diagram.ShapeDiamond:   "diamond",
	diagram.ShapeCylinder:  "cylinder",
}

func fmtAttrs(n diagram.Node, detailed bool) []string {
	shape, ok := shapes[n.Shape]
	if !ok {
		shape = "box"
	}
	style := []string{"filled"}
	if n.Shape == diagram.ShapeRounded {
		style = append(style, "rounded")
	}
	switch n.Style.BorderStyle {
	case diagram.BorderDashed:
		style = append(style, "dashed")
	case diagram.BorderDotted:
		style = append(style, "dotted")
	}

	fill := render.Fill(n.Style.ColorToken)
	if fill == "none" {
		fill = "transparent"
	}
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		"shape=" + shape,
		fmt.Sprintf("style=%q", strings.Join(style, ",")),
		fmt.Sprintf("fillcolor=%q", fill),
		fmt.Sprintf("color=%q", render.Stroke(n.Style.BorderColor)),
	}
	if n.Style.Bold {
		attrs = append(attrs, `fontname="Helvetica-Bold"`)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
