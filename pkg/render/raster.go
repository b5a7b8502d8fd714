package render

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/fogleman/gg"

	"github.com/cooketh/flow/pkg/diagram"
)

// MaxRasterSide caps the pixel width and height of raster exports. Larger
// scenes are drawn at a reduced scale.
const MaxRasterSide = 8192

// RasterOption configures [RenderPNG] and [RenderJPEG].
type RasterOption func(*rasterRenderer)

type rasterRenderer struct {
	theme   Theme
	padding float64
	scale   float64
	quality int
}

// WithRasterTheme selects the background.
func WithRasterTheme(t Theme) RasterOption { return func(r *rasterRenderer) { r.theme = t } }

// WithRasterPadding sets the margin around the content.
func WithRasterPadding(p float64) RasterOption { return func(r *rasterRenderer) { r.padding = p } }

// WithScale sets the pixel density (default 2.0 for 2x resolution).
func WithScale(s float64) RasterOption {
	return func(r *rasterRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) RasterOption {
	return func(r *rasterRenderer) { r.quality = min(100, max(1, q)) }
}

func newRasterRenderer(opts ...RasterOption) rasterRenderer {
	r := rasterRenderer{theme: ThemeLight, padding: DefaultPadding, scale: 2.0, quality: 90}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderPNG rasterizes the scene natively. Text uses the built-in bitmap
// face, so font size and weight are approximated.
func RenderPNG(s Scene, opts ...RasterOption) ([]byte, error) {
	dc := newRasterRenderer(opts...).draw(s)
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJPEG rasterizes the scene as JPEG.
func RenderJPEG(s Scene, opts ...RasterOption) ([]byte, error) {
	r := newRasterRenderer(opts...)
	dc := r.draw(s)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (r rasterRenderer) draw(s Scene) *gg.Context {
	f := s.ExportFrame(r.padding)
	scale := min(r.scale, MaxRasterSide/f.W, MaxRasterSide/f.H)
	w := min(MaxRasterSide, int(math.Ceil(f.W*scale)))
	h := min(MaxRasterSide, int(math.Ceil(f.H*scale)))

	dc := gg.NewContext(w, h)
	dc.SetHexColor(r.theme.Background())
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-f.X, -f.Y)

	for _, e := range s.Edges {
		drawEdge(dc, e, r.theme)
	}
	for _, n := range s.Nodes {
		drawNode(dc, n, r.theme)
	}
	return dc
}

func drawEdge(dc *gg.Context, e EdgeGeometry, theme Theme) {
	pts := e.Path.Points
	if len(pts) < 2 {
		return
	}
	dc.SetHexColor(edgeColor)
	dc.SetLineWidth(2)
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
	drawArrowHead(dc, pts[len(pts)-2], pts[len(pts)-1])

	if e.Edge.Label != "" {
		tw, th := dc.MeasureString(e.Edge.Label)
		lp := e.Path.Label
		dc.SetHexColor(theme.Background())
		dc.DrawRectangle(lp.X-tw/2-3, lp.Y-th/2-2, tw+6, th+4)
		dc.Fill()
		dc.SetHexColor(theme.text())
		dc.DrawStringAnchored(e.Edge.Label, lp.X, lp.Y, 0.5, 0.35)
	}
}

func drawArrowHead(dc *gg.Context, from, tip diagram.Point) {
	const size = 10.0
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	left := angle + math.Pi*5/6
	right := angle - math.Pi*5/6
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(tip.X+size*math.Cos(left), tip.Y+size*math.Sin(left))
	dc.LineTo(tip.X+size*math.Cos(right), tip.Y+size*math.Sin(right))
	dc.ClosePath()
	dc.Fill()
}

func drawNode(dc *gg.Context, n diagram.Node, theme Theme) {
	b := n.Bounds()
	c := b.Center()

	outline := func() {
		switch n.Shape {
		case diagram.ShapeRounded:
			dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 12)
		case diagram.ShapeCircle:
			dc.DrawEllipse(c.X, c.Y, b.W/2, b.H/2)
		case diagram.ShapeDiamond:
			dc.MoveTo(c.X, b.Y)
			dc.LineTo(b.Right(), c.Y)
			dc.LineTo(c.X, b.Bottom())
			dc.LineTo(b.X, c.Y)
			dc.ClosePath()
		case diagram.ShapeCylinder:
			ry := cylinderCap(b)
			dc.DrawRectangle(b.X, b.Y+ry, b.W, b.H-2*ry)
			dc.DrawEllipse(c.X, b.Bottom()-ry, b.W/2, ry)
			dc.DrawEllipse(c.X, b.Y+ry, b.W/2, ry)
		default:
			dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		}
	}

	if fill := Fill(n.Style.ColorToken); fill != "none" {
		outline()
		dc.SetHexColor(fill)
		dc.Fill()
	}
	outline()
	dc.SetHexColor(Stroke(n.Style.BorderColor))
	dc.SetLineWidth(2)
	switch n.Style.BorderStyle {
	case diagram.BorderDashed:
		dc.SetDash(8, 4)
	case diagram.BorderDotted:
		dc.SetDash(2, 3)
	}
	dc.Stroke()
	dc.SetDash()

	if n.Label == "" {
		return
	}
	size := fontSize(n.Style.FontSize)
	lines := wrapLabel(n.Label, b.W, b.H, size)
	x, ax := c.X, 0.5
	switch n.Style.Align {
	case diagram.AlignLeft:
		x, ax = b.X+textInset, 0
	case diagram.AlignRight:
		x, ax = b.Right()-textInset, 1
	}
	_, th := dc.MeasureString("M")
	step := th * lineHeight
	top := c.Y - float64(len(lines)-1)*step/2
	dc.SetHexColor(theme.text())
	for i, line := range lines {
		y := top + float64(i)*step
		dc.DrawStringAnchored(line, x, y, ax, 0.35)
		if n.Style.Underline {
			lw, _ := dc.MeasureString(line)
			x0 := x - ax*lw
			dc.SetLineWidth(1)
			dc.DrawLine(x0, y+th/2+1, x0+lw, y+th/2+1)
			dc.Stroke()
		}
	}
}
