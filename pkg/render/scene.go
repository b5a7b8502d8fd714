package render

import (
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/route"
)

// DefaultPadding is the margin added around the content bounds when
// sizing an export canvas.
const DefaultPadding = 50.0

// Minimum export canvas size.
const (
	MinExportWidth  = 800.0
	MinExportHeight = 600.0
)

// EdgeGeometry pairs an edge with its routed path.
type EdgeGeometry struct {
	Edge diagram.Edge `json:"edge"`
	Path route.Path   `json:"path"`
}

// Scene is the renderer-facing view of a diagram: positioned nodes, routed
// connectors and the world-space bounds of the content. Scenes are derived
// on demand and never stored.
type Scene struct {
	Title   string         `json:"title,omitempty"`
	Nodes   []diagram.Node `json:"nodes"`
	Edges   []EdgeGeometry `json:"edges"`
	Bounds  diagram.Rect   `json:"bounds"`
	Preview *route.Path    `json:"preview,omitempty"`
}

// NewScene routes every valid edge of g and computes the content bounds.
// Edges with a missing endpoint are left out.
func NewScene(title string, g diagram.Graph) Scene {
	s := Scene{Title: title, Nodes: g.Nodes}
	byID := make(map[string]diagram.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	for _, e := range g.ValidEdges() {
		s.Edges = append(s.Edges, EdgeGeometry{Edge: e, Path: route.Between(byID[e.From], byID[e.To])})
	}
	s.Bounds, _ = g.Bounds()
	return s
}

// Frame returns the content bounds grown by pad on every side. An empty
// scene yields a pad-sized frame at the origin.
func (s Scene) Frame(pad float64) diagram.Rect {
	if len(s.Nodes) == 0 {
		return diagram.Rect{W: 2 * pad, H: 2 * pad}
	}
	return s.Bounds.Inset(pad)
}

// ExportFrame is [Scene.Frame] grown to at least MinExportWidth by
// MinExportHeight. The top-left corner stays put; extra space is added to
// the right and bottom.
func (s Scene) ExportFrame(pad float64) diagram.Rect {
	f := s.Frame(pad)
	f.W = max(f.W, MinExportWidth)
	f.H = max(f.H, MinExportHeight)
	return f
}
