package canvas

import (
	"math"

	"github.com/cooketh/flow/pkg/diagram"
)

// Zoom limits and fit padding.
const (
	MinZoom    = 0.1
	MaxZoom    = 3.0
	FitPadding = 100.0
)

// Viewport maps world coordinates to screen coordinates:
// screen = world*Zoom + Pan.
type Viewport struct {
	PanX float64 `json:"x"`
	PanY float64 `json:"y"`
	Zoom float64 `json:"k"`
}

// Identity is the viewport with no pan and 100% zoom.
var Identity = Viewport{Zoom: 1}

// ToWorld converts a screen point to world coordinates.
func (v Viewport) ToWorld(p diagram.Point) diagram.Point {
	z := v.zoom()
	return diagram.Point{X: (p.X - v.PanX) / z, Y: (p.Y - v.PanY) / z}
}

// ToScreen converts a world point to screen coordinates.
func (v Viewport) ToScreen(p diagram.Point) diagram.Point {
	z := v.zoom()
	return diagram.Point{X: p.X*z + v.PanX, Y: p.Y*z + v.PanY}
}

// ZoomBy returns v with zoom changed by delta and clamped to
// [MinZoom, MaxZoom].
func (v Viewport) ZoomBy(delta float64) Viewport {
	v.Zoom = ClampZoom(v.zoom() + delta)
	return v
}

// Visible returns the world-space rectangle shown in a w×h view.
func (v Viewport) Visible(w, h float64) diagram.Rect {
	tl := v.ToWorld(diagram.Point{})
	z := v.zoom()
	return diagram.Rect{X: tl.X, Y: tl.Y, W: w / z, H: h / z}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Fit returns a viewport that shows all of g, padded by [FitPadding], in a
// w×h view. The scale is the smaller of the width and height fits and never
// exceeds 1 (nor drops below [MinZoom]). An empty graph or an unsized view yields [Identity].
func Fit(g diagram.Graph, w, h float64) Viewport {
	b, ok := g.Bounds()
	if !ok || w <= 0 || h <= 0 {
		return Identity
	}
	cw := b.W + 2*FitPadding
	ch := b.H + 2*FitPadding
	s := math.Max(math.Min(math.Min(w/cw, h/ch), 1), MinZoom)
	return Viewport{
		PanX: (w-cw*s)/2 - b.X*s + FitPadding*s,
		PanY: (h-ch*s)/2 - b.Y*s + FitPadding*s,
		Zoom: s,
	}
}
