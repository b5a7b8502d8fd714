// Package nodelink renders diagrams through Graphviz.
//
// # Overview
//
// Graphviz ignores the positions stored on nodes and computes its own
// hierarchical layout, which is useful for printing large diagrams or
// for feeding external Graphviz tooling.
//
//	dot := nodelink.ToDOT(doc.Title, doc.Graph, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// Node shapes map onto Graphviz shapes (rounded boxes, ellipses, diamonds
// and cylinders) and node colors are resolved with [render.Fill] and
// [render.Stroke]. Edges that reference missing nodes are left out.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [render.Fill]: github.com/cooketh/flow/pkg/render.Fill
// [render.Stroke]: github.com/cooketh/flow/pkg/render.Stroke
package nodelink
