// Package route computes orthogonal connector geometry between node boxes.
//
// Routing is a pure function of the two bounding boxes. Nothing is cached:
// callers re-route on every render so connectors always follow the current
// node positions.
//
// Route picks the first rule that applies:
//
//  1. The target starts at or after the source's right edge and the
//     vertical centers are within [Tolerance]: a straight horizontal
//     segment from the source's right-mid anchor to the target's left-mid.
//  2. The target starts at or below the source's bottom edge and the
//     horizontal centers are within [Tolerance]: a straight vertical
//     segment from bottom-mid to top-mid.
//  3. A step path: right-then-down (turning at the middle x) when the
//     target lies to the right, down-then-right (turning at the middle y)
//     when it lies below. Otherwise a direct right-mid to left-mid
//     fallback segment.
package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/cooketh/flow/pkg/diagram"
)

// Tolerance is the maximum center misalignment for a straight connector.
const Tolerance = 30.0

// Label offsets from the path midpoint.
const (
	LabelNudge = 20.0 // right of vertical segments
	LabelLift  = 12.0 // above horizontal segments
)

// Kind names the rule that produced a path.
type Kind string

const (
	KindHorizontal Kind = "horizontal"
	KindVertical   Kind = "vertical"
	KindStepRight  Kind = "step-right"
	KindStepDown   Kind = "step-down"
	KindFallback   Kind = "fallback"
	KindPreview    Kind = "preview"
)

// Path is a routed connector: a polyline plus the point its label is
// anchored at.
type Path struct {
	Kind   Kind            `json:"kind"`
	Points []diagram.Point `json:"points"`
	Label  diagram.Point   `json:"label"`
}

// Route computes the connector from src to tgt.
func Route(src, tgt diagram.Rect) Path {
	sc, tc := src.Center(), tgt.Center()
	right := diagram.Point{X: src.Right(), Y: sc.Y}
	bottom := diagram.Point{X: sc.X, Y: src.Bottom()}
	left := diagram.Point{X: tgt.X, Y: tc.Y}
	top := diagram.Point{X: tc.X, Y: tgt.Y}

	isRight := tgt.X >= src.Right()
	isBelow := tgt.Y >= src.Bottom()

	var p Path
	switch {
	case isRight && math.Abs(sc.Y-tc.Y) < Tolerance:
		p = Path{Kind: KindHorizontal, Points: []diagram.Point{right, left}}
	case isBelow && math.Abs(sc.X-tc.X) < Tolerance:
		p = Path{Kind: KindVertical, Points: []diagram.Point{bottom, top}}
	case isRight:
		midX := (right.X + left.X) / 2
		p = Path{Kind: KindStepRight, Points: []diagram.Point{
			right, {X: midX, Y: right.Y}, {X: midX, Y: left.Y}, left,
		}}
	case isBelow:
		midY := (bottom.Y + top.Y) / 2
		p = Path{Kind: KindStepDown, Points: []diagram.Point{
			bottom, {X: bottom.X, Y: midY}, {X: top.X, Y: midY}, top,
		}}
	default:
		p = Path{Kind: KindFallback, Points: []diagram.Point{right, left}}
	}
	p.Label = labelAnchor(p.Points)
	return p
}

// Between routes the connector between two nodes.
func Between(from, to diagram.Node) Path {
	return Route(from.Bounds(), to.Bounds())
}

// Preview is the rubber-band segment drawn while a connection is being
// dragged from src toward the pointer at cursor.
func Preview(src diagram.Rect, cursor diagram.Point) Path {
	pts := []diagram.Point{src.Center(), cursor}
	return Path{Kind: KindPreview, Points: pts, Label: midpoint(pts[0], pts[1])}
}

// Length returns the total polyline length.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p.Points); i++ {
		l += dist(p.Points[i-1], p.Points[i])
	}
	return l
}

// Start returns the first point, or the zero point for an empty path.
func (p Path) Start() diagram.Point {
	if len(p.Points) == 0 {
		return diagram.Point{}
	}
	return p.Points[0]
}

// End returns the last point, or the zero point for an empty path.
func (p Path) End() diagram.Point {
	if len(p.Points) == 0 {
		return diagram.Point{}
	}
	return p.Points[len(p.Points)-1]
}

// SVG renders the path as SVG path data ("M x y L x y ...").
func (p Path) SVG() string {
	var b strings.Builder
	for i, pt := range p.Points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(num(pt.X))
		b.WriteByte(' ')
		b.WriteString(num(pt.Y))
	}
	return b.String()
}

// labelAnchor returns the point halfway along the polyline, nudged right
// when it falls on a vertical segment and lifted when it falls on a
// horizontal one.
func labelAnchor(pts []diagram.Point) diagram.Point {
	if len(pts) == 0 {
		return diagram.Point{}
	}
	half := Path{Points: pts}.Length() / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		seg := dist(a, b)
		if seg < half {
			half -= seg
			continue
		}
		t := 0.0
		if seg > 0 {
			t = half / seg
		}
		at := diagram.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		switch {
		case a.X == b.X && a.Y != b.Y:
			at.X += LabelNudge
		case a.Y == b.Y && a.X != b.X:
			at.Y -= LabelLift
		}
		return at
	}
	return pts[len(pts)-1]
}

func midpoint(a, b diagram.Point) diagram.Point {
	return diagram.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func dist(a, b diagram.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
