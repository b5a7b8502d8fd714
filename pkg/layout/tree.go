package layout

import (
	"math"

	"github.com/cooketh/flow/pkg/diagram"
)

// Tree layout spacing.
const (
	LevelHeight = 150.0
	SiblingGap  = 220.0
	TreeMargin  = 100.0
	treeOriginX = 400.0
)

// tree places every node centered above the span its children reserve.
// Each node is claimed once, by the first parent to reach it in depth
// first order, so cycles and shared children become a spanning tree and
// every subtree width is computed a single time.
func tree(ix *index, root string, skip map[string]bool) positions {
	children := make(map[string][]string)
	claimed := map[string]bool{root: true}
	var claim func(id string)
	claim = func(id string) {
		for _, l := range ix.adj[id] {
			if claimed[l.id] || skip[l.id] {
				continue
			}
			claimed[l.id] = true
			children[id] = append(children[id], l.id)
			claim(l.id)
		}
	}
	claim(root)

	widths := make(map[string]float64, len(claimed))
	var width func(id string) float64
	width = func(id string) float64 {
		if w, ok := widths[id]; ok {
			return w
		}
		w := SiblingGap
		if kids := children[id]; len(kids) > 0 {
			w = 0
			for _, k := range kids {
				w += width(k)
			}
		}
		widths[id] = w
		return w
	}

	pos := make(positions, len(claimed))
	var place func(id string, cx float64, depth int)
	place = func(id string, cx float64, depth int) {
		w, _ := ix.size(id)
		pos[id] = diagram.Point{X: cx - w/2, Y: float64(depth) * LevelHeight}

		x := cx - width(id)/2
		for _, k := range children[id] {
			cw := width(k)
			place(k, x+cw/2, depth+1)
			x += cw
		}
	}
	place(root, treeOriginX, 0)

	minX := math.Inf(1)
	for _, p := range pos {
		minX = math.Min(minX, p.X)
	}
	return translate(pos, TreeMargin-minX, 0)
}
