package pipeline

import (
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/layout"
)

// Layout repositions g when opts names a style and returns g unchanged
// otherwise. Dangling edges are dropped either way.
func Layout(g diagram.Graph, opts Options) diagram.Graph {
	g = g.Sanitize()
	if st, ok := opts.LayoutStyle(); ok {
		return layout.Apply(g, st)
	}
	return g
}
