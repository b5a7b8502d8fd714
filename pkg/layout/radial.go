package layout

import (
	"math"

	"github.com/cooketh/flow/pkg/diagram"
)

// Radial layout ring geometry.
const (
	BaseRadius = 300.0
	RadiusStep = 220.0
)

type sector struct {
	id         string
	depth      int
	start, end float64
}

// radial centers root on the origin and expands breadth-first. Each node's
// sector is split evenly among its unvisited children, and a child's center
// lands on the bisector of its sub-sector at BaseRadius + depth*RadiusStep.
func radial(ix *index, root string, skip map[string]bool) positions {
	pos := make(positions)
	w, h := ix.size(root)
	pos[root] = diagram.Point{X: -w / 2, Y: -h / 2}

	visited := map[string]bool{root: true}
	queue := []sector{{id: root, start: 0, end: 2 * math.Pi}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		var kids []string
		for _, l := range ix.adj[s.id] {
			if !visited[l.id] && !skip[l.id] {
				visited[l.id] = true
				kids = append(kids, l.id)
			}
		}
		if len(kids) == 0 {
			continue
		}

		step := (s.end - s.start) / float64(len(kids))
		radius := BaseRadius + float64(s.depth)*RadiusStep
		for i, id := range kids {
			angle := s.start + step*float64(i) + step/2
			cw, ch := ix.size(id)
			pos[id] = diagram.Point{
				X: math.Cos(angle)*radius - cw/2,
				Y: math.Sin(angle)*radius - ch/2,
			}
			queue = append(queue, sector{
				id:    id,
				depth: s.depth + 1,
				start: s.start + step*float64(i),
				end:   s.start + step*float64(i+1),
			})
		}
	}
	return pos
}
