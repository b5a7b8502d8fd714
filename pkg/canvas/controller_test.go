package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/history"
	"github.com/cooketh/flow/pkg/layout"
)

type pt = diagram.Point

// fixture loads a controller with nodes a (100,100) and b (500,100), both
// 200x80, and a 1000x800 view at identity zoom.
func fixture(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c := New(opts...)
	c.Handle(Resize{Width: 1000, Height: 800})
	c.Load(diagram.Document{Title: "Test", Graph: diagram.Graph{Nodes: []diagram.Node{
		{ID: "a", X: 100, Y: 100, Width: 200, Height: 80, Label: "A"},
		{ID: "b", X: 500, Y: 100, Width: 200, Height: 80, Label: "B"},
	}}})
	c.state.Viewport = Identity
	return c
}

func node(t *testing.T, c *Controller, id string) diagram.Node {
	t.Helper()
	n, ok := c.Graph().Node(id)
	require.True(t, ok, "node %s missing", id)
	return n
}

func TestDragCommitsOnce(t *testing.T) {
	c := fixture(t)
	start := c.History().Len()

	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")})
	require.Equal(t, ModeDragging, c.State().Mode)
	assert.Equal(t, pt{X: 50, Y: 20}, c.State().Drag.GrabOffset)

	for _, p := range []pt{{X: 200, Y: 200}, {X: 250, Y: 250}, {X: 300, Y: 300}} {
		eff := c.Handle(PointerMove{Screen: p})
		assert.Empty(t, eff.Commit)
		require.NotNil(t, eff.Pointer)
	}
	assert.Equal(t, start, c.History().Len(), "moves must not commit")

	eff := c.Handle(PointerUp{Screen: pt{X: 300, Y: 300}})
	assert.Equal(t, history.ActionMove, eff.Commit)
	assert.Equal(t, start+1, c.History().Len())
	assert.Equal(t, ModeIdle, c.State().Mode)

	n := node(t, c, "a")
	assert.Equal(t, pt{X: 250, Y: 280}, n.Origin())
	assert.Equal(t, "a", c.State().Selection.NodeID)
}

func TestDragWithoutMovementDoesNotCommit(t *testing.T) {
	c := fixture(t)
	start := c.History().Len()
	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")})
	eff := c.Handle(PointerUp{Screen: pt{X: 150, Y: 120}})
	assert.Empty(t, eff.Commit)
	assert.Equal(t, start, c.History().Len())
}

func TestDragTracksZoom(t *testing.T) {
	c := fixture(t)
	c.state.Viewport = Viewport{PanX: 10, PanY: 20, Zoom: 2}
	// a's origin (100,100) is at screen (210,220).
	c.Handle(PointerDown{Screen: pt{X: 230, Y: 240}, Target: OnNode("a")})
	c.Handle(PointerMove{Screen: pt{X: 430, Y: 240}})
	c.Handle(PointerUp{Screen: pt{X: 430, Y: 240}})
	assert.Equal(t, pt{X: 200, Y: 100}, node(t, c, "a").Origin())
}

func TestPanToolDoesNotDragNodes(t *testing.T) {
	c := fixture(t)
	c.SetTool(ToolPan)
	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")})
	assert.Equal(t, ModeIdle, c.State().Mode)
}

func TestResizeClamp(t *testing.T) {
	for _, h := range Handles {
		t.Run(string(h), func(t *testing.T) {
			c := fixture(t)
			before := node(t, c, "a").Bounds()

			c.Handle(PointerDown{Screen: pt{X: 0, Y: 0}, Target: OnHandle("a", h)})
			require.Equal(t, ModeResizing, c.State().Mode)

			// Drag every handle far inward.
			var dx, dy float64
			if h.Has('e') {
				dx = -1000
			}
			if h.Has('w') {
				dx = 1000
			}
			if h.Has('s') {
				dy = -1000
			}
			if h.Has('n') {
				dy = 1000
			}
			c.Handle(PointerMove{Screen: pt{X: dx, Y: dy}})
			eff := c.Handle(PointerUp{Screen: pt{X: dx, Y: dy}})
			assert.Equal(t, history.ActionResize, eff.Commit)

			after := node(t, c, "a").Bounds()
			assert.GreaterOrEqual(t, after.W, diagram.MinSize)
			assert.GreaterOrEqual(t, after.H, diagram.MinSize)
			if h.Has('w') {
				assert.Equal(t, before.Right(), after.Right(), "east edge must stay fixed")
			}
			if h.Has('n') {
				assert.Equal(t, before.Bottom(), after.Bottom(), "south edge must stay fixed")
			}
			if h.Has('e') {
				assert.Equal(t, before.X, after.X)
			}
			if h.Has('s') {
				assert.Equal(t, before.Y, after.Y)
			}
		})
	}
}

func TestResizeBox(t *testing.T) {
	initial := diagram.Rect{X: 100, Y: 100, W: 200, H: 80}
	tests := []struct {
		h      Handle
		dx, dy float64
		want   diagram.Rect
	}{
		{"e", 50, 0, diagram.Rect{X: 100, Y: 100, W: 250, H: 80}},
		{"s", 0, 20, diagram.Rect{X: 100, Y: 100, W: 200, H: 100}},
		{"w", 50, 0, diagram.Rect{X: 150, Y: 100, W: 150, H: 80}},
		{"n", 0, -20, diagram.Rect{X: 100, Y: 80, W: 200, H: 100}},
		{"se", 10, 10, diagram.Rect{X: 100, Y: 100, W: 210, H: 90}},
		{"nw", 500, 500, diagram.Rect{X: 250, Y: 130, W: 50, H: 50}},
	}
	for _, tt := range tests {
		t.Run(string(tt.h), func(t *testing.T) {
			assert.Equal(t, tt.want, ResizeBox(initial, tt.h, tt.dx, tt.dy))
		})
	}
}

func TestConnect(t *testing.T) {
	c := fixture(t)

	c.Handle(PointerDown{Screen: pt{X: 300, Y: 140}, Target: OnConnector("a")})
	require.Equal(t, ModeConnecting, c.State().Mode)
	c.Handle(PointerMove{Screen: pt{X: 400, Y: 150}})
	p, ok := c.Preview()
	require.True(t, ok)
	assert.Equal(t, pt{X: 400, Y: 150}, p.End())

	eff := c.Handle(PointerUp{Screen: pt{X: 550, Y: 140}, Target: OnNode("b")})
	assert.Equal(t, history.ActionConnect, eff.Commit)
	require.Len(t, c.Graph().Edges, 1)
	assert.Equal(t, "a", c.Graph().Edges[0].From)
	assert.Equal(t, "b", c.Graph().Edges[0].To)
	_, ok = c.Preview()
	assert.False(t, ok)

	// Same ordered pair again: exactly one edge, no history entry.
	n := c.History().Len()
	c.Handle(PointerDown{Screen: pt{X: 300, Y: 140}, Target: OnConnector("a")})
	eff = c.Handle(PointerUp{Screen: pt{X: 550, Y: 140}, Target: OnNode("b")})
	assert.Empty(t, eff.Commit)
	assert.Len(t, c.Graph().Edges, 1)
	assert.Equal(t, n, c.History().Len())
}

func TestConnectCancelled(t *testing.T) {
	tests := []struct {
		name string
		up   PointerUp
	}{
		{"EmptySpace", PointerUp{Screen: pt{X: 900, Y: 700}, Target: Canvas()}},
		{"SameNode", PointerUp{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")}},
		{"SameNodeByHitTest", PointerUp{Screen: pt{X: 150, Y: 120}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixture(t)
			n := c.History().Len()
			c.Handle(PointerDown{Screen: pt{X: 300, Y: 140}, Target: OnConnector("a")})
			eff := c.Handle(tt.up)
			assert.Empty(t, eff.Commit)
			assert.Empty(t, c.Graph().Edges)
			assert.Equal(t, n, c.History().Len())
			assert.Equal(t, ModeIdle, c.State().Mode)
		})
	}
}

func TestConnectByHitTest(t *testing.T) {
	c := fixture(t)
	c.Handle(PointerDown{Screen: pt{X: 300, Y: 140}, Target: OnConnector("a")})
	c.Handle(PointerUp{Screen: pt{X: 550, Y: 140}})
	assert.True(t, c.Graph().HasEdge("a", "b"))
}

func TestPanning(t *testing.T) {
	c := fixture(t)
	c.SetTool(ToolPan)
	n := c.History().Len()

	c.Handle(PointerDown{Screen: pt{X: 10, Y: 10}, Target: Canvas()})
	require.Equal(t, ModePanning, c.State().Mode)
	eff := c.Handle(PointerMove{Screen: pt{X: 60, Y: 30}})
	assert.True(t, eff.View)
	c.Handle(PointerUp{Screen: pt{X: 60, Y: 30}})

	v := c.State().Viewport
	assert.Equal(t, 50.0, v.PanX)
	assert.Equal(t, 20.0, v.PanY)
	assert.Equal(t, n, c.History().Len(), "panning is not a graph mutation")
}

func TestMiddleButtonPansAnywhere(t *testing.T) {
	c := fixture(t)
	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Button: ButtonMiddle, Target: OnNode("a")})
	assert.Equal(t, ModePanning, c.State().Mode)
}

func TestEditEdgeLabel(t *testing.T) {
	setup := func(t *testing.T) (*Controller, string) {
		c := fixture(t)
		c.Connect("a", "b")
		id := c.Graph().Edges[0].ID
		c.Handle(DoubleClick{Target: OnEdgeLabel(id)})
		require.Equal(t, ModeEditingEdgeLabel, c.State().Mode)
		c.Handle(TextInput{Text: "yes", Replace: true})
		return c, id
	}

	t.Run("EnterCommits", func(t *testing.T) {
		c, id := setup(t)
		eff := c.Handle(Key{Key: KeyEnter})
		assert.Equal(t, history.ActionRename, eff.Commit)
		e, _ := c.Graph().Edge(id)
		assert.Equal(t, "yes", e.Label)
	})
	t.Run("BlurCommits", func(t *testing.T) {
		c, id := setup(t)
		c.Handle(Blur{})
		e, _ := c.Graph().Edge(id)
		assert.Equal(t, "yes", e.Label)
	})
	t.Run("EscapeReverts", func(t *testing.T) {
		c, id := setup(t)
		n := c.History().Len()
		c.Handle(Key{Key: KeyEscape})
		e, _ := c.Graph().Edge(id)
		assert.Empty(t, e.Label)
		assert.Equal(t, n, c.History().Len())
	})
	t.Run("ClickElsewhereReverts", func(t *testing.T) {
		c, id := setup(t)
		c.Handle(PointerDown{Screen: pt{X: 900, Y: 700}, Target: Canvas()})
		e, _ := c.Graph().Edge(id)
		assert.Empty(t, e.Label)
		assert.Equal(t, ModeIdle, c.State().Mode)
	})
	t.Run("TypingAndBackspace", func(t *testing.T) {
		c, id := setup(t)
		c.Handle(TextInput{Text: "!"})
		c.Handle(Key{Key: KeyBackspace})
		c.Handle(Key{Key: KeyBackspace})
		c.Handle(Key{Key: KeyEnter})
		e, _ := c.Graph().Edge(id)
		assert.Equal(t, "ye", e.Label)
		assert.Len(t, c.Graph().Nodes, 2, "backspace while editing must not delete")
	})
}

func TestSelectionIsExclusive(t *testing.T) {
	c := fixture(t)
	c.Connect("a", "b")
	id := c.Graph().Edges[0].ID

	c.Select("a")
	c.Handle(PointerDown{Target: OnEdgeLabel(id)})
	assert.Equal(t, Selection{EdgeID: id}, c.State().Selection)

	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")})
	c.Handle(PointerUp{Screen: pt{X: 150, Y: 120}})
	assert.Equal(t, Selection{NodeID: "a"}, c.State().Selection)

	c.Handle(PointerDown{Screen: pt{X: 900, Y: 700}, Target: Canvas()})
	assert.True(t, c.State().Selection.Empty())
}

func TestDeleteKeyCascades(t *testing.T) {
	c := fixture(t)
	c.Connect("a", "b")
	c.Connect("b", "a")
	c.Select("a")

	eff := c.Handle(Key{Key: KeyDelete})
	assert.Equal(t, history.ActionDelete, eff.Commit)
	_, ok := c.Graph().Node("a")
	assert.False(t, ok)
	assert.Empty(t, c.Graph().Edges)
	assert.True(t, c.State().Selection.Empty())

	c.Undo()
	assert.Len(t, c.Graph().Edges, 2)
}

func TestDeleteEdge(t *testing.T) {
	c := fixture(t)
	c.Connect("a", "b")
	c.SelectEdge(c.Graph().Edges[0].ID)
	eff := c.Handle(Key{Key: KeyBackspace})
	assert.Equal(t, history.ActionDeleteEdge, eff.Commit)
	assert.Empty(t, c.Graph().Edges)
	assert.Len(t, c.Graph().Nodes, 2)
}

func TestShortcutsIgnoredWithTextFocus(t *testing.T) {
	c := fixture(t)
	c.Select("a")
	c.Handle(Key{Key: KeyDelete, TextFocus: true})
	c.Handle(Key{Key: "s", Ctrl: true, TextFocus: true})
	assert.Len(t, c.Graph().Nodes, 2)
}

func TestShortcuts(t *testing.T) {
	c := fixture(t)

	c.Handle(Key{Key: "a", Ctrl: true})
	assert.Equal(t, ToolPan, c.State().Tool)
	c.Handle(Key{Key: "P", Meta: true})
	assert.Equal(t, ToolPointer, c.State().Tool)

	eff := c.Handle(Key{Key: "s", Ctrl: true})
	assert.Equal(t, history.ActionAdd, eff.Commit)
	sticky := node(t, c, c.State().Selection.NodeID)
	assert.Equal(t, diagram.KindSticky, sticky.Kind)

	c.Handle(Key{Key: "t", Alt: true})
	text := node(t, c, c.State().Selection.NodeID)
	assert.Equal(t, diagram.KindText, text.Kind)
	assert.Len(t, c.Graph().Nodes, 4)

	c.Handle(Key{Key: "z", Ctrl: true})
	assert.Len(t, c.Graph().Nodes, 3)
	c.Handle(Key{Key: "z", Ctrl: true, Shift: true})
	assert.Len(t, c.Graph().Nodes, 4)

	c.state.Viewport = Viewport{PanX: 999, Zoom: 3}
	c.Handle(Key{Key: "r", Ctrl: true})
	assert.LessOrEqual(t, c.State().Viewport.Zoom, 1.0)

	c.Handle(Key{Key: KeyEscape})
	assert.True(t, c.State().Selection.Empty())
}

func TestEscapeCancelsDrag(t *testing.T) {
	c := fixture(t)
	n := c.History().Len()
	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")})
	c.Handle(PointerMove{Screen: pt{X: 400, Y: 400}})
	eff := c.Handle(Key{Key: KeyEscape})
	assert.True(t, eff.Graph)
	assert.Equal(t, ModeIdle, c.State().Mode)
	assert.Equal(t, pt{X: 100, Y: 100}, node(t, c, "a").Origin())
	c.Handle(PointerUp{Screen: pt{X: 400, Y: 400}})
	assert.Equal(t, n, c.History().Len())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	c := fixture(t)
	c.Select("a")
	c.Connect("a", "b")
	c.AddNode(diagram.KindIdea)
	label := "renamed"
	c.Select("b")
	c.UpdateSelectedNode(diagram.NodePatch{Label: &label})
	c.UpdateSelectedStyle(func(s *diagram.Style) { s.Bold = true })
	c.AutoLayout(layout.StyleTree)
	final := c.Graph()

	const n = 5
	for i := 0; i < n; i++ {
		require.NotEqual(t, Effect{}, c.Undo(), "undo %d", i)
	}
	assert.Empty(t, c.Graph().Edges)
	for i := 0; i < n; i++ {
		c.Redo()
	}
	assert.Equal(t, final, c.Graph())
	assert.Equal(t, Effect{}, c.Redo())
}

func TestUpdateActionLabels(t *testing.T) {
	c := fixture(t)
	c.Select("a")
	label := "x"
	eff := c.UpdateSelectedNode(diagram.NodePatch{Label: &label})
	assert.Equal(t, "Update Node label", eff.Commit)
	eff = c.UpdateSelectedStyle(func(s *diagram.Style) { s.Italic = true })
	assert.Equal(t, history.ActionStyle, eff.Commit)
	eff = c.UpdateSelectedStyle(func(s *diagram.Style) { s.Italic = true })
	assert.Empty(t, eff.Commit, "unchanged style is not a mutation")
}

func TestAddNodeAtViewCenter(t *testing.T) {
	c := fixture(t)
	c.state.Viewport = Viewport{PanX: 100, PanY: 0, Zoom: 2}
	id, _ := c.AddNode(diagram.KindDatabase)
	n := node(t, c, id)
	// View center (500,400) maps to world ((500-100)/2, 400/2).
	assert.Equal(t, pt{X: 200, Y: 200}, n.Center())
	assert.Equal(t, diagram.ShapeCylinder, n.Shape)
}

func TestClearCanvas(t *testing.T) {
	c := fixture(t)
	eff := c.ClearCanvas()
	assert.Equal(t, history.ActionClear, eff.Commit)
	assert.True(t, c.Graph().IsEmpty())
	assert.Equal(t, Effect{}, c.ClearCanvas())
	c.Undo()
	assert.Len(t, c.Graph().Nodes, 2)
}

func TestAutoLayoutEmptyIsNoop(t *testing.T) {
	c := New()
	assert.Equal(t, Effect{}, c.AutoLayout(layout.StyleMindmap))
	assert.Equal(t, 1, c.History().Len())
}

func TestOnChangeHook(t *testing.T) {
	var actions []string
	c := fixture(t, OnChange(func(a string) { actions = append(actions, a) }))
	assert.Empty(t, actions, "load is not a change")

	c.Connect("a", "b")
	c.Undo()
	c.SetTitle("New title")
	assert.Equal(t, []string{history.ActionConnect, "Undo", "Rename Map"}, actions)
}

func TestLoadSanitizes(t *testing.T) {
	c := New()
	c.Load(diagram.Document{Graph: diagram.Graph{
		Nodes: []diagram.Node{{ID: "a"}},
		Edges: []diagram.Edge{{ID: "e", From: "a", To: "ghost"}},
	}})
	assert.Empty(t, c.Graph().Edges)
	assert.Equal(t, []string{history.ActionLoad}, c.History().Entries())
	assert.False(t, c.History().CanUndo())
}

func TestComments(t *testing.T) {
	c := fixture(t)
	cm, ok := c.AddComment("a", "u1", "Ann", "check this")
	require.True(t, ok)
	_, ok = c.AddComment("ghost", "u1", "Ann", "nope")
	assert.False(t, ok)
	assert.Len(t, c.CommentsFor("a"), 1)

	c.Select("a")
	c.DeleteSelection()
	assert.Empty(t, c.Document().Comments)
	assert.False(t, c.DeleteComment(cm.ID))
}

func TestRoutesDerivedFromPositions(t *testing.T) {
	c := fixture(t)
	c.Connect("a", "b")
	r := c.Routes()
	require.Len(t, r, 1)
	assert.Equal(t, pt{X: 300, Y: 140}, r[0].Path.Start())

	c.Handle(PointerDown{Screen: pt{X: 150, Y: 120}, Target: OnNode("a")})
	c.Handle(PointerMove{Screen: pt{X: 150, Y: 420}})
	r = c.Routes()
	assert.NotEqual(t, pt{X: 300, Y: 140}, r[0].Path.Start(), "routes follow live positions")
	c.Handle(PointerUp{Screen: pt{X: 150, Y: 420}})

	s := c.Scene()
	assert.Len(t, s.Edges, 1)
	assert.Nil(t, s.Preview)
}
