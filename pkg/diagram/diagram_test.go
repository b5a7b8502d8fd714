package diagram

import (
	"errors"
	"testing"
)

func node(id string, x, y float64) Node {
	return Node{ID: id, X: x, Y: y, Width: 200, Height: 80, Label: id}
}

func build(t *testing.T, ids []string, edges [][2]string) Graph {
	t.Helper()
	var g Graph
	var err error
	for _, id := range ids {
		if g, err = g.AddNode(node(id, 0, 0)); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if g, _, err = g.AddEdge(e[0], e[1], ""); err != nil {
			t.Fatalf("AddEdge(%s,%s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{"Valid", node("a", 0, 0), nil},
		{"EmptyID", Node{}, ErrInvalidNodeID},
		{"Duplicate", node("x", 0, 0), ErrDuplicateNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := build(t, []string{"x"}, nil)
			g, err := base.AddNode(tt.node)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(g.Nodes) != 2 {
				t.Errorf("nodes = %d, want 2", len(g.Nodes))
			}
			if len(base.Nodes) != 1 {
				t.Errorf("receiver mutated: %d nodes", len(base.Nodes))
			}
		})
	}
}

func TestAddNodeDefaultsSize(t *testing.T) {
	g, err := Graph{}.AddNode(Node{ID: "s", Kind: KindSticky})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := g.Node("s")
	if n.Width != 200 || n.Height != 200 {
		t.Errorf("size = %vx%v, want 200x200", n.Width, n.Height)
	}

	g, _ = Graph{}.AddNode(Node{ID: "t", Width: 10, Height: 20})
	n, _ = g.Node("t")
	if n.Width != MinSize || n.Height != MinSize {
		t.Errorf("size = %vx%v, want clamp to %v", n.Width, n.Height, MinSize)
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "x"}, [][2]string{
		{"a", "x"}, {"x", "b"}, {"x", "c"}, {"a", "b"}, {"c", "x"},
	})

	out, err := g.RemoveNode("x")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.Node("x"); ok {
		t.Error("node x still present")
	}
	for _, e := range out.Edges {
		if e.From == "x" || e.To == "x" {
			t.Errorf("edge %s still references x", e.ID)
		}
	}
	if len(out.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(out.Edges))
	}
	if len(g.Edges) != 5 {
		t.Error("receiver mutated")
	}

	if _, err := out.RemoveNode("x"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("second remove err = %v, want ErrUnknownNode", err)
	}
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantErr  error
	}{
		{"New", "b", "a", nil},
		{"SelfLoop", "a", "a", ErrSelfLoop},
		{"Duplicate", "a", "b", ErrDuplicateEdge},
		{"MissingSource", "zz", "a", ErrUnknownNode},
		{"MissingTarget", "a", "zz", ErrUnknownNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
			out, e, err := g.AddEdge(tt.from, tt.to, "yes")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				if len(out.Edges) != 1 {
					t.Errorf("edges = %d after rejected add, want 1", len(out.Edges))
				}
				return
			}
			if e.ID == "" || e.Label != "yes" {
				t.Errorf("edge = %+v", e)
			}
			if len(out.Edges) != 2 {
				t.Errorf("edges = %d, want 2", len(out.Edges))
			}
		})
	}
}

func TestAddEdgeTwiceKeepsOne(t *testing.T) {
	g := build(t, []string{"a", "b"}, nil)
	g, _, _ = g.AddEdge("a", "b", "")
	g, _, _ = g.AddEdge("a", "b", "again")

	count := 0
	for _, e := range g.Edges {
		if e.From == "a" && e.To == "b" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("a->b edges = %d, want 1", count)
	}
}

func TestUpdateNodeClampsSize(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	w, h, label := 10.0, -5.0, "renamed"
	out, err := g.UpdateNode("a", NodePatch{Width: &w, Height: &h, Label: &label})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := out.Node("a")
	if n.Width < MinSize || n.Height < MinSize {
		t.Errorf("size = %vx%v, want >= %v", n.Width, n.Height, MinSize)
	}
	if n.Label != "renamed" {
		t.Errorf("label = %q", n.Label)
	}
	if orig, _ := g.Node("a"); orig.Label != "a" {
		t.Error("receiver mutated")
	}
}

func TestUpdateAndRemoveEdge(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	id := g.Edges[0].ID

	label := "no"
	g, err := g.UpdateEdge(id, EdgePatch{Label: &label})
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := g.Edge(id); e.Label != "no" {
		t.Errorf("label = %q, want no", e.Label)
	}

	g, err = g.RemoveEdge(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 0 {
		t.Errorf("edges = %d, want 0", len(g.Edges))
	}
	if _, err := g.RemoveEdge(id); !errors.Is(err, ErrUnknownEdge) {
		t.Errorf("err = %v, want ErrUnknownEdge", err)
	}
}

func TestSanitize(t *testing.T) {
	g := Graph{
		Nodes: []Node{node("a", 0, 0), node("b", 0, 0), node("a", 5, 5), {}},
		Edges: []Edge{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "a", To: "b"},
			{ID: "e3", From: "a", To: "ghost"},
			{ID: "e4", From: "b", To: "b"},
			{ID: "e1", From: "b", To: "a"},
			{From: "b", To: "a"},
		},
	}
	out := g.Sanitize()

	if len(out.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(out.Nodes))
	}
	if out.Nodes[0].X != 0 {
		t.Error("first duplicate should win")
	}
	if len(out.Edges) != 2 {
		t.Fatalf("edges = %d, want 2: %+v", len(out.Edges), out.Edges)
	}
	if out.Edges[1].ID == "e1" || out.Edges[1].ID == "" {
		t.Errorf("repeated edge ID not replaced: %q", out.Edges[1].ID)
	}
}

func TestValidEdges(t *testing.T) {
	g := Graph{
		Nodes: []Node{node("a", 0, 0), node("b", 0, 0)},
		Edges: []Edge{{ID: "1", From: "a", To: "b"}, {ID: "2", From: "a", To: "c"}},
	}
	if got := g.ValidEdges(); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("ValidEdges = %+v", got)
	}
	if got := g.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("Children(a) = %v", got)
	}
	if got := g.Parents("b"); len(got) != 1 || got[0] != "a" {
		t.Errorf("Parents(b) = %v", got)
	}
}

func TestBoundsAndNodeAt(t *testing.T) {
	var g Graph
	if _, ok := g.Bounds(); ok {
		t.Error("empty graph has bounds")
	}
	g, _ = g.AddNode(node("a", 0, 0))
	g, _ = g.AddNode(node("b", 100, 40))

	r, ok := g.Bounds()
	if !ok || r != (Rect{X: 0, Y: 0, W: 300, H: 120}) {
		t.Errorf("Bounds = %+v", r)
	}

	tests := []struct {
		p    Point
		want string
	}{
		{Point{10, 10}, "a"},
		{Point{150, 60}, "b"},
		{Point{250, 110}, "b"},
		{Point{500, 500}, ""},
	}
	for _, tt := range tests {
		n, ok := g.NodeAt(tt.p)
		if tt.want == "" {
			if ok {
				t.Errorf("NodeAt(%v) = %s, want none", tt.p, n.ID)
			}
			continue
		}
		if n.ID != tt.want {
			t.Errorf("NodeAt(%v) = %s, want %s", tt.p, n.ID, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"decision": KindProcess,
		"Topic":    KindTopic,
		"":         KindStep,
		"unknown":  KindStep,
		" root ":   KindRoot,
	}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewNodeCentered(t *testing.T) {
	n := NewNode(KindDatabase, Point{X: 500, Y: 300})
	if n.Center() != (Point{X: 500, Y: 300}) {
		t.Errorf("center = %+v", n.Center())
	}
	if n.Shape != ShapeCylinder || n.Width != 120 {
		t.Errorf("database defaults not applied: %+v", n)
	}
}
