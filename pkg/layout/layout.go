package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cooketh/flow/pkg/diagram"
)

// Style selects a layout algorithm.
type Style string

const (
	StyleMindmap   Style = "mindmap"
	StyleTree      Style = "tree"
	StyleFlowchart Style = "flowchart"
	StyleConcept   Style = "concept"
)

// Styles lists the supported styles.
var Styles = []Style{StyleMindmap, StyleTree, StyleFlowchart, StyleConcept}

// ErrUnknownStyle is returned by [ParseStyle] for names outside [Styles].
var ErrUnknownStyle = errors.New("unknown layout style")

// ComponentGap is the vertical space left between stacked components.
const ComponentGap = 120.0

// ParseStyle converts a style name to a [Style], ignoring case.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Styles {
		if v == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
}

// positions maps node IDs to top-left corners.
type positions map[string]diagram.Point

// placer lays out the component reachable from root, skipping nodes in
// skip, and returns positions for the nodes it placed.
type placer func(ix *index, root string, skip map[string]bool) positions

// Apply returns a copy of g with node positions computed for style.
// Unknown styles fall back to the radial layout. Empty graphs are returned
// unchanged.
func Apply(g diagram.Graph, style Style) diagram.Graph {
	out := g.Clone()
	if len(out.Nodes) == 0 {
		return out
	}

	place := placerFor(style)
	ix := newIndex(out)
	placed := make(map[string]bool, len(out.Nodes))
	all := make(positions, len(out.Nodes))

	var bounds diagram.Rect
	root := ix.root(placed)
	for root != "" {
		comp := place(ix, root, placed)
		r := ix.bounds(comp)
		if len(all) > 0 {
			comp = translate(comp, bounds.X-r.X, bounds.Bottom()+ComponentGap-r.Y)
			r = ix.bounds(comp)
			bounds = bounds.Union(r)
		} else {
			bounds = r
		}
		for id, p := range comp {
			all[id] = p
			placed[id] = true
		}
		root = ix.root(placed)
	}

	for i := range out.Nodes {
		if p, ok := all[out.Nodes[i].ID]; ok {
			out.Nodes[i].X = p.X
			out.Nodes[i].Y = p.Y
		}
	}
	return out
}

func placerFor(style Style) placer {
	switch style {
	case StyleTree:
		return tree
	case StyleFlowchart:
		return flowchart
	default:
		return radial
	}
}

func translate(p positions, dx, dy float64) positions {
	out := make(positions, len(p))
	for id, pt := range p {
		out[id] = diagram.Point{X: pt.X + dx, Y: pt.Y + dy}
	}
	return out
}

// =============================================================================
// Graph Index
// =============================================================================

type link struct {
	id    string
	label string
}

// index is the read-only adjacency view shared by the algorithms.
type index struct {
	nodes []diagram.Node
	byID  map[string]int
	adj   map[string][]link
	indeg map[string]int
}

func newIndex(g diagram.Graph) *index {
	ix := &index{
		nodes: g.Nodes,
		byID:  make(map[string]int, len(g.Nodes)),
		adj:   make(map[string][]link, len(g.Nodes)),
		indeg: make(map[string]int, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		ix.byID[n.ID] = i
	}
	for _, e := range g.ValidEdges() {
		if e.From == e.To {
			continue
		}
		ix.adj[e.From] = append(ix.adj[e.From], link{id: e.To, label: strings.ToLower(e.Label)})
		ix.indeg[e.To]++
	}
	return ix
}

func (ix *index) node(id string) diagram.Node {
	return ix.nodes[ix.byID[id]]
}

// size returns a node's dimensions, substituting defaults for unset values.
func (ix *index) size(id string) (w, h float64) {
	return ix.node(id).Size()
}

// root picks the next root among nodes not yet placed: kind root first,
// then minimum in-degree, then insertion order. It returns "" when every
// node is placed.
func (ix *index) root(placed map[string]bool) string {
	best, bestDeg := "", math.MaxInt
	for _, n := range ix.nodes {
		if placed[n.ID] {
			continue
		}
		if n.Kind == diagram.KindRoot {
			return n.ID
		}
		if d := ix.indeg[n.ID]; d < bestDeg {
			best, bestDeg = n.ID, d
		}
	}
	return best
}

// bounds returns the union of the boxes of the given positioned nodes.
func (ix *index) bounds(p positions) diagram.Rect {
	var r diagram.Rect
	first := true
	for _, n := range ix.nodes {
		pt, ok := p[n.ID]
		if !ok {
			continue
		}
		w, h := n.Size()
		box := diagram.Rect{X: pt.X, Y: pt.Y, W: w, H: h}
		if first {
			r, first = box, false
			continue
		}
		r = r.Union(box)
	}
	return r
}
