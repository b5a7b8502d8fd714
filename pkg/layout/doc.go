// Package layout assigns positions to diagram nodes from graph topology.
//
// # Overview
//
// [Apply] is a pure function: it takes a [diagram.Graph] and a [Style] and
// returns a copy with every node's X and Y reassigned. Edges, sizes and
// labels are left untouched. Only edges whose endpoints both exist are
// considered.
//
// # Styles
//
//   - [StyleMindmap] and [StyleConcept]: radial. The root is centered on the
//     origin and each node's angular sector is split evenly among its
//     unvisited children. Ring radius grows by [RadiusStep] per depth,
//     starting at [BaseRadius].
//   - [StyleTree]: hierarchical. Every node reserves the sum of its
//     children's widths (one [SiblingGap] for leaves) and is centered above
//     them, [LevelHeight] per level. The result is shifted so the leftmost
//     node starts at x = [TreeMargin].
//   - [StyleFlowchart]: grid. Main continuations move one column right,
//     branch continuations (edge label containing "yes" or "true") stay in
//     the column and move down. Cells are [ColumnWidth] by [RowHeight].
//
// # Roots and Cycles
//
// The root is the first node of kind root, else the node with the smallest
// in-degree, else the first node. Every algorithm keeps a visited set, so
// cyclic and reconverging graphs terminate and every node is placed once.
//
// Nodes the root cannot reach are laid out as further components, each
// stacked below what has already been placed.
package layout
