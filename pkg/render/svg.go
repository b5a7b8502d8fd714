package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cooketh/flow/pkg/diagram"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme       Theme
	padding     float64
	transparent bool
}

// WithTheme selects the light or dark background.
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithPadding sets the margin around the content.
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// WithTransparent omits the background rectangle.
func WithTransparent() SVGOption { return func(r *svgRenderer) { r.transparent = true } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{theme: ThemeLight, padding: DefaultPadding}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws the scene as a standalone SVG document. Connectors are
// drawn beneath nodes; nodes keep their slice order so later nodes paint
// over earlier ones.
func RenderSVG(s Scene, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	f := s.ExportFrame(r.padding)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(f.X), num(f.Y), num(f.W), num(f.H), f.W, f.H)
	if s.Title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(s.Title))
	}
	fmt.Fprintf(&buf, `  <defs><marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker></defs>`+"\n", edgeColor)
	if !r.transparent {
		fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(f.X), num(f.Y), num(f.W), num(f.H), r.theme.Background())
	}

	for _, e := range s.Edges {
		renderEdgeSVG(&buf, e, r.theme)
	}
	if s.Preview != nil {
		fmt.Fprintf(&buf, `  <path class="preview" d="%s" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="6 4"/>`+"\n",
			s.Preview.SVG(), edgeColor)
	}
	for _, n := range s.Nodes {
		renderNodeSVG(&buf, n, r.theme)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderEdgeSVG(buf *bytes.Buffer, e EdgeGeometry, theme Theme) {
	if len(e.Path.Points) < 2 {
		return
	}
	fmt.Fprintf(buf, `  <path id="edge-%s" class="edge" d="%s" fill="none" stroke="%s" stroke-width="2" marker-end="url(#arrow)"/>`+"\n",
		escapeXML(e.Edge.ID), e.Path.SVG(), edgeColor)
	if e.Edge.Label == "" {
		return
	}
	fmt.Fprintf(buf, `  <text class="edge-label" x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="12" fill="%s" stroke="%s" stroke-width="4" paint-order="stroke">%s</text>`+"\n",
		num(e.Path.Label.X), num(e.Path.Label.Y), theme.text(), theme.Background(), escapeXML(e.Edge.Label))
}

func renderNodeSVG(buf *bytes.Buffer, n diagram.Node, theme Theme) {
	b := n.Bounds()
	fill, stroke := Fill(n.Style.ColorToken), Stroke(n.Style.BorderColor)
	dash := ""
	switch n.Style.BorderStyle {
	case diagram.BorderDashed:
		dash = ` stroke-dasharray="8 4"`
	case diagram.BorderDotted:
		dash = ` stroke-dasharray="2 3"`
	}
	paint := fmt.Sprintf(`fill="%s" stroke="%s" stroke-width="2"%s`, fill, stroke, dash)

	fmt.Fprintf(buf, `  <g id="node-%s" class="node kind-%s">`+"\n", escapeXML(n.ID), n.Kind)
	switch n.Shape {
	case diagram.ShapeRounded:
		fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" rx="12" %s/>`+"\n",
			num(b.X), num(b.Y), num(b.W), num(b.H), paint)
	case diagram.ShapeCircle:
		c := b.Center()
		fmt.Fprintf(buf, `    <ellipse cx="%s" cy="%s" rx="%s" ry="%s" %s/>`+"\n",
			num(c.X), num(c.Y), num(b.W/2), num(b.H/2), paint)
	case diagram.ShapeDiamond:
		c := b.Center()
		fmt.Fprintf(buf, `    <polygon points="%s,%s %s,%s %s,%s %s,%s" %s/>`+"\n",
			num(c.X), num(b.Y), num(b.Right()), num(c.Y), num(c.X), num(b.Bottom()), num(b.X), num(c.Y), paint)
	case diagram.ShapeCylinder:
		ry := cylinderCap(b)
		fmt.Fprintf(buf, `    <path d="M %s %s A %s %s 0 0 0 %s %s L %s %s A %s %s 0 0 1 %s %s Z" %s/>`+"\n",
			num(b.X), num(b.Y+ry), num(b.W/2), num(ry), num(b.Right()), num(b.Y+ry),
			num(b.Right()), num(b.Bottom()-ry), num(b.W/2), num(ry), num(b.X), num(b.Bottom()-ry), paint)
		fmt.Fprintf(buf, `    <ellipse cx="%s" cy="%s" rx="%s" ry="%s" %s/>`+"\n",
			num(b.Center().X), num(b.Y+ry), num(b.W/2), num(ry), paint)
	default:
		fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" rx="2" %s/>`+"\n",
			num(b.X), num(b.Y), num(b.W), num(b.H), paint)
	}
	renderLabelSVG(buf, n, theme)
	buf.WriteString("  </g>\n")
}

func renderLabelSVG(buf *bytes.Buffer, n diagram.Node, theme Theme) {
	if n.Label == "" {
		return
	}
	b := n.Bounds()
	size := fontSize(n.Style.FontSize)
	lines := wrapLabel(n.Label, b.W, b.H, size)

	x, anchor := b.Center().X, "middle"
	switch n.Style.Align {
	case diagram.AlignLeft:
		x, anchor = b.X+textInset, "start"
	case diagram.AlignRight:
		x, anchor = b.Right()-textInset, "end"
	}
	top := b.Center().Y - float64(len(lines)-1)*size*lineHeight/2

	var attrs []string
	if n.Style.Bold {
		attrs = append(attrs, `font-weight="bold"`)
	}
	if n.Style.Italic {
		attrs = append(attrs, `font-style="italic"`)
	}
	if n.Style.Underline {
		attrs = append(attrs, `text-decoration="underline"`)
	}
	extra := ""
	if len(attrs) > 0 {
		extra = " " + strings.Join(attrs, " ")
	}

	fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="%s" dominant-baseline="middle" font-family="sans-serif" font-size="%s" fill="%s"%s>`,
		num(x), num(top), anchor, num(size), theme.text(), extra)
	for i, line := range lines {
		dy := "0"
		if i > 0 {
			dy = num(size * lineHeight)
		}
		fmt.Fprintf(buf, `<tspan x="%s" dy="%s">%s</tspan>`, num(x), dy, escapeXML(line))
	}
	buf.WriteString("</text>\n")
}

// cylinderCap is the vertical radius of a cylinder's end caps.
func cylinderCap(b diagram.Rect) float64 { return min(b.H/6, 16) }

// num formats a coordinate with at most two decimals.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
