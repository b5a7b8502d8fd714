// Package diagram provides the graph data model behind the Flow canvas.
//
// # Overview
//
// A diagram is a directed graph of positioned, sized and labeled [Node]
// values connected by optionally labeled [Edge] values. Unlike a DAG, a
// diagram may legally contain cycles: mind maps and concept maps frequently
// link back to earlier ideas, and every consumer of this package (layout,
// routing, rendering) is expected to cope with that.
//
// # Pure Transforms
//
// [Graph] is a plain value. Every mutating operation ([Graph.AddNode],
// [Graph.RemoveNode], [Graph.AddEdge], [Graph.UpdateNode],
// [Graph.UpdateEdge], [Graph.RemoveEdge]) returns a new graph and leaves
// the receiver untouched, so callers can keep the previous value around for
// undo history without defensive copying:
//
//	g := diagram.Graph{}
//	g, _ = g.AddNode(diagram.Node{ID: "a", Label: "Start"})
//	g, _ = g.AddNode(diagram.Node{ID: "b", Label: "Finish"})
//	g, _, _ = g.AddEdge("a", "b", "")
//
// # Referential Integrity
//
// No operation may leave a dangling edge. [Graph.RemoveNode] cascades to
// every edge touching the node, and [Graph.AddEdge] rejects unknown
// endpoints, self loops and duplicate ordered pairs. Graphs that arrive
// from outside (imports, generated graphs) should be passed through
// [Graph.Sanitize], which silently drops edges referencing missing nodes
// along with duplicate identifiers.
//
// # Node Kinds
//
// Each [Kind] has a default size, shape, color and icon. These live in a
// lookup table consulted through [SpecFor] and [NewNode] rather than in
// branching code, so adding a kind is a one-line change.
//
// # Geometry
//
// Positions are world coordinates of the node's top-left corner. Width and
// height never drop below [MinSize]; patches that try are clamped.
package diagram
