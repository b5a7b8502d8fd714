package layout

import (
	"strconv"
	"strings"

	"github.com/cooketh/flow/pkg/diagram"
)

// Flowchart grid pitch.
const (
	ColumnWidth = 280.0
	RowHeight   = 180.0
)

// Cell is a flowchart grid coordinate.
type Cell struct {
	Col, Row int
}

// IsBranchLabel reports whether an edge label marks the alternate path of a
// decision ("yes" or "true", any case, anywhere in the label).
func IsBranchLabel(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "yes") || strings.Contains(l, "true")
}

// flowGrid computes flowchart cells for the component reachable from root.
// Occupancy is tracked as "col,row" keys and a node probes downward from
// its minimum row until it finds a free cell.
func flowGrid(g diagram.Graph, root string) map[string]Cell {
	ix := newIndex(g)
	if _, ok := ix.byID[root]; !ok {
		return nil
	}
	return grid(ix, root, nil)
}

func grid(ix *index, root string, skip map[string]bool) map[string]Cell {
	occupied := make(map[string]bool)
	cells := make(map[string]Cell)

	var visit func(id string, col, minRow int)
	visit = func(id string, col, minRow int) {
		if _, done := cells[id]; done || skip[id] {
			return
		}
		row := minRow
		for occupied[cellKey(col, row)] {
			row++
		}
		occupied[cellKey(col, row)] = true
		cells[id] = Cell{Col: col, Row: row}

		var main, branch []string
		for _, l := range ix.adj[id] {
			if IsBranchLabel(l.label) {
				branch = append(branch, l.id)
			} else {
				main = append(main, l.id)
			}
		}
		for _, c := range main {
			visit(c, col+1, row)
		}
		for _, c := range branch {
			visit(c, col, row+1)
		}
	}
	visit(root, 0, 0)
	return cells
}

func flowchart(ix *index, root string, skip map[string]bool) positions {
	cells := grid(ix, root, skip)
	pos := make(positions, len(cells))
	for id, c := range cells {
		pos[id] = diagram.Point{X: float64(c.Col) * ColumnWidth, Y: float64(c.Row) * RowHeight}
	}
	return pos
}

func cellKey(col, row int) string {
	return strconv.Itoa(col) + "," + strconv.Itoa(row)
}
