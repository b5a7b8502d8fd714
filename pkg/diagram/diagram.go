package diagram

import (
	"errors"
	"slices"
)

// Default and minimum node dimensions in world units.
const (
	MinSize       = 50.0
	DefaultWidth  = 200.0
	DefaultHeight = 100.0
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation names a node that is not
	// in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEdge is returned when an operation names an edge that is not
	// in the graph.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrSelfLoop is returned by [Graph.AddEdge] when from and to are equal.
	ErrSelfLoop = errors.New("edge must connect two different nodes")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when an edge with the
	// same ordered (from, to) pair already exists. Parallel edges are not
	// allowed.
	ErrDuplicateEdge = errors.New("edge already exists")

	// ErrDuplicateEdgeID is returned by [Graph.InsertEdge] when the edge ID
	// is already taken.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")
)

// Align is the horizontal text alignment inside a node.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Border styles.
const (
	BorderSolid  = "solid"
	BorderDashed = "dashed"
	BorderDotted = "dotted"
)

// Style holds text and color presentation for a node. Color values are
// opaque tokens interpreted by the renderer (hex codes or palette names).
type Style struct {
	Bold        bool   `json:"bold,omitempty" bson:"bold,omitempty"`
	Italic      bool   `json:"italic,omitempty" bson:"italic,omitempty"`
	Underline   bool   `json:"underline,omitempty" bson:"underline,omitempty"`
	Align       Align  `json:"align,omitempty" bson:"align,omitempty"`
	FontSize    string `json:"fontSize,omitempty" bson:"font_size,omitempty"` // sm, md, lg, xl
	ColorToken  string `json:"color,omitempty" bson:"color,omitempty"`
	BorderColor string `json:"borderColor,omitempty" bson:"border_color,omitempty"`
	BorderStyle string `json:"borderStyle,omitempty" bson:"border_style,omitempty"`
}

// Node is a positioned, sized, labeled visual unit of the diagram.
// X and Y locate the top-left corner in world space.
type Node struct {
	ID       string  `json:"id" bson:"id" validate:"required"`
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Width    float64 `json:"width,omitempty" bson:"width,omitempty" validate:"gte=0"`
	Height   float64 `json:"height,omitempty" bson:"height,omitempty" validate:"gte=0"`
	Label    string  `json:"label" bson:"label"`
	Kind     Kind    `json:"kind,omitempty" bson:"kind,omitempty"`
	Shape    Shape   `json:"shape,omitempty" bson:"shape,omitempty"`
	Style    Style   `json:"style,omitempty" bson:"style,omitempty"`
	IconKey  string  `json:"icon,omitempty" bson:"icon,omitempty"`
	ImageRef string  `json:"src,omitempty" bson:"src,omitempty"`
}

// Size returns the node's width and height, substituting the defaults for
// unset (zero) values and never returning less than [MinSize].
func (n Node) Size() (w, h float64) {
	w, h = n.Width, n.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return max(w, MinSize), max(h, MinSize)
}

// Bounds returns the node's bounding box in world space.
func (n Node) Bounds() Rect {
	w, h := n.Size()
	return Rect{X: n.X, Y: n.Y, W: w, H: h}
}

// Center returns the center of the node's bounding box.
func (n Node) Center() Point { return n.Bounds().Center() }

// Origin returns the node's top-left corner.
func (n Node) Origin() Point { return Point{X: n.X, Y: n.Y} }

// Edge is a directed, optionally labeled connector between two nodes.
type Edge struct {
	ID    string `json:"id" bson:"id"`
	From  string `json:"from" bson:"from" validate:"required"`
	To    string `json:"to" bson:"to" validate:"required"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// Graph is an ordered set of nodes plus a set of edges. Node order is the
// insertion order and has no meaning for layout.
//
// The zero value is an empty, usable graph. Graph is a value type: methods
// never modify the receiver.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" bson:"edges" validate:"dive"`
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	return Graph{Nodes: slices.Clone(g.Nodes), Edges: slices.Clone(g.Edges)}
}

// IsEmpty reports whether the graph has no nodes.
func (g Graph) IsEmpty() bool { return len(g.Nodes) == 0 }

// Node returns the node with the given ID.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// Edge returns the edge with the given ID.
func (g Graph) Edge(id string) (Edge, bool) {
	if i := g.edgeIndex(id); i >= 0 {
		return g.Edges[i], true
	}
	return Edge{}, false
}

// HasEdge reports whether an edge from → to exists.
func (g Graph) HasEdge(from, to string) bool {
	return slices.ContainsFunc(g.Edges, func(e Edge) bool { return e.From == from && e.To == to })
}

// AddNode returns a copy of g with n appended. Zero width or height is
// replaced by the kind's default size, and sizes below [MinSize] are
// clamped.
func (g Graph) AddNode(n Node) (Graph, error) {
	if n.ID == "" {
		return g, ErrInvalidNodeID
	}
	if g.nodeIndex(n.ID) >= 0 {
		return g, ErrDuplicateNodeID
	}
	out := g.Clone()
	out.Nodes = append(out.Nodes, normalizeNode(n))
	return out, nil
}

// RemoveNode returns a copy of g without the node and without every edge
// whose From or To equals id.
func (g Graph) RemoveNode(id string) (Graph, error) {
	if g.nodeIndex(id) < 0 {
		return g, ErrUnknownNode
	}
	out := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)-1),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		if n.ID != id {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if e.From != id && e.To != id {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

// AddEdge returns a copy of g with a new edge from → to carrying label. The
// edge ID is generated. It fails with [ErrSelfLoop] when from == to,
// [ErrDuplicateEdge] when the ordered pair is already connected and
// [ErrUnknownNode] when either endpoint is missing.
func (g Graph) AddEdge(from, to, label string) (Graph, Edge, error) {
	e := Edge{ID: NewID("edge"), From: from, To: to, Label: label}
	out, err := g.InsertEdge(e)
	if err != nil {
		return g, Edge{}, err
	}
	return out, e, nil
}

// InsertEdge is AddEdge with a caller-chosen edge ID.
func (g Graph) InsertEdge(e Edge) (Graph, error) {
	if e.From == e.To {
		return g, ErrSelfLoop
	}
	if g.nodeIndex(e.From) < 0 || g.nodeIndex(e.To) < 0 {
		return g, ErrUnknownNode
	}
	if g.HasEdge(e.From, e.To) {
		return g, ErrDuplicateEdge
	}
	if e.ID == "" {
		e.ID = NewID("edge")
	} else if g.edgeIndex(e.ID) >= 0 {
		return g, ErrDuplicateEdgeID
	}
	out := g.Clone()
	out.Edges = append(out.Edges, e)
	return out, nil
}

// RemoveEdge returns a copy of g without the edge.
func (g Graph) RemoveEdge(id string) (Graph, error) {
	i := g.edgeIndex(id)
	if i < 0 {
		return g, ErrUnknownEdge
	}
	out := g.Clone()
	out.Edges = slices.Delete(out.Edges, i, i+1)
	return out, nil
}

// NodePatch lists the node fields to change. Nil fields are left alone.
type NodePatch struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Label    *string
	Kind     *Kind
	Shape    *Shape
	Style    *Style
	IconKey  *string
	ImageRef *string
}

// Apply returns n with the patch applied. Width and height are clamped to
// [MinSize].
func (p NodePatch) Apply(n Node) Node {
	set(&n.X, p.X)
	set(&n.Y, p.Y)
	set(&n.Width, p.Width)
	set(&n.Height, p.Height)
	set(&n.Label, p.Label)
	set(&n.Kind, p.Kind)
	set(&n.Shape, p.Shape)
	set(&n.Style, p.Style)
	set(&n.IconKey, p.IconKey)
	set(&n.ImageRef, p.ImageRef)
	n.Width = max(n.Width, MinSize)
	n.Height = max(n.Height, MinSize)
	return n
}

// UpdateNode returns a copy of g with the patch applied to node id.
func (g Graph) UpdateNode(id string, p NodePatch) (Graph, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return g, ErrUnknownNode
	}
	out := g.Clone()
	out.Nodes[i] = p.Apply(out.Nodes[i])
	return out, nil
}

// EdgePatch lists the edge fields to change.
type EdgePatch struct {
	Label *string
}

// UpdateEdge returns a copy of g with the patch applied to edge id.
func (g Graph) UpdateEdge(id string, p EdgePatch) (Graph, error) {
	i := g.edgeIndex(id)
	if i < 0 {
		return g, ErrUnknownEdge
	}
	out := g.Clone()
	set(&out.Edges[i].Label, p.Label)
	return out, nil
}

// ValidEdges returns the edges whose endpoints both exist, in order.
// Layout and rendering only ever look at these.
func (g Graph) ValidEdges() []Edge {
	ids := g.idSet()
	var out []Edge
	for _, e := range g.Edges {
		if ids[e.From] && ids[e.To] {
			out = append(out, e)
		}
	}
	return out
}

// Sanitize returns a copy of g that satisfies every structural invariant:
// nodes without an ID or with a repeated ID are dropped (first wins), sizes
// are normalized, and edges that dangle, loop onto themselves, repeat an
// ordered pair or repeat an ID are dropped. Edges without an ID get one.
func (g Graph) Sanitize() Graph {
	out := Graph{Nodes: make([]Node, 0, len(g.Nodes))}
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" || ids[n.ID] {
			continue
		}
		ids[n.ID] = true
		out.Nodes = append(out.Nodes, normalizeNode(n))
	}

	type pair struct{ from, to string }
	pairs := make(map[pair]bool, len(g.Edges))
	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if !ids[e.From] || !ids[e.To] || e.From == e.To {
			continue
		}
		p := pair{e.From, e.To}
		if pairs[p] {
			continue
		}
		if e.ID == "" || edgeIDs[e.ID] {
			e.ID = NewID("edge")
		}
		pairs[p] = true
		edgeIDs[e.ID] = true
		out.Edges = append(out.Edges, e)
	}
	return out
}

// Bounds returns the union of all node boxes. ok is false for an empty graph.
func (g Graph) Bounds() (r Rect, ok bool) {
	for i, n := range g.Nodes {
		if i == 0 {
			r = n.Bounds()
			continue
		}
		r = r.Union(n.Bounds())
	}
	return r, len(g.Nodes) > 0
}

// NodeAt returns the topmost node whose box contains p. Later nodes are
// drawn above earlier ones.
func (g Graph) NodeAt(p Point) (Node, bool) {
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if g.Nodes[i].Bounds().Contains(p) {
			return g.Nodes[i], true
		}
	}
	return Node{}, false
}

// Children returns the IDs of nodes reachable by one valid outgoing edge.
func (g Graph) Children(id string) []string {
	var out []string
	for _, e := range g.ValidEdges() {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Parents returns the IDs of nodes with a valid edge into id.
func (g Graph) Parents(id string) []string {
	var out []string
	for _, e := range g.ValidEdges() {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

// NodeIDs returns the node IDs in order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func (g Graph) idSet() map[string]bool {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	return ids
}

func (g Graph) nodeIndex(id string) int {
	return slices.IndexFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

func (g Graph) edgeIndex(id string) int {
	return slices.IndexFunc(g.Edges, func(e Edge) bool { return e.ID == id })
}

func normalizeNode(n Node) Node {
	spec := SpecFor(n.Kind)
	if n.Width <= 0 {
		n.Width = spec.Width
	}
	if n.Height <= 0 {
		n.Height = spec.Height
	}
	n.Width = max(n.Width, MinSize)
	n.Height = max(n.Height, MinSize)
	if n.Shape == "" {
		n.Shape = spec.Shape
	}
	return n
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
