package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/canvas"
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/history"
)

func newTestEditor(t *testing.T, g diagram.Graph) editorModel {
	t.Helper()
	ctrl := canvas.New()
	ctrl.Load(diagram.Document{Title: "Test", Graph: g})
	m := newEditorModel(context.Background(), ctrl, nil)
	return send(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
}

func send(t *testing.T, m editorModel, msg tea.Msg) editorModel {
	t.Helper()
	next, _ := m.Update(msg)
	em, ok := next.(editorModel)
	require.True(t, ok)
	return em
}

func press(x, y int, ctrl bool) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Ctrl: ctrl, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func twoNodes() diagram.Graph {
	return diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "a", X: 0, Y: 0, Width: 200, Height: 80, Label: "Alpha", Kind: diagram.KindIdea, Shape: diagram.ShapeRounded},
			{ID: "b", X: 600, Y: 0, Width: 200, Height: 80, Label: "Beta", Kind: diagram.KindIdea, Shape: diagram.ShapeRounded},
		},
	}
}

// centerCell returns a cell inside node id away from its handle.
func centerCell(t *testing.T, m editorModel, id string) (int, int) {
	t.Helper()
	n, ok := m.ctrl.Graph().Node(id)
	require.True(t, ok)
	c1, r1, c2, r2 := nodeCells(m.ctrl.State().Viewport, n)
	return (c1 + c2) / 2, (r1 + r2) / 2
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want canvas.Key
		ok   bool
	}{
		{"delete", tea.KeyMsg{Type: tea.KeyDelete}, canvas.Key{Key: canvas.KeyDelete}, true},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, canvas.Key{Key: canvas.KeyBackspace}, true},
		{"escape", tea.KeyMsg{Type: tea.KeyEscape}, canvas.Key{Key: canvas.KeyEscape}, true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, canvas.Key{Key: canvas.KeyEnter}, true},
		{"undo", tea.KeyMsg{Type: tea.KeyCtrlZ}, canvas.Key{Key: "z", Ctrl: true}, true},
		{"redo", tea.KeyMsg{Type: tea.KeyCtrlY}, canvas.Key{Key: "z", Ctrl: true, Shift: true}, true},
		{"pan tool", tea.KeyMsg{Type: tea.KeyCtrlA}, canvas.Key{Key: "a", Ctrl: true}, true},
		{"sticky", tea.KeyMsg{Type: tea.KeyCtrlS}, canvas.Key{Key: "s", Ctrl: true}, true},
		{"text", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t"), Alt: true}, canvas.Key{Key: "t", Alt: true}, true},
		{"plain rune", runes("x"), canvas.Key{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyEvent(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t, twoNodes())
	view := m.View()

	lines := strings.Split(view, "\n")
	assert.Len(t, lines, 50)
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "Beta")
	assert.Contains(t, view, "idle")
	assert.Contains(t, view, "saved")

	assert.Equal(t, "loading...", newEditorModel(context.Background(), canvas.New(), nil).View())
}

func TestEditorDragCommitsOnce(t *testing.T) {
	m := newTestEditor(t, twoNodes())
	var pointers []diagram.Point
	m.pointer = func(p diagram.Point) { pointers = append(pointers, p) }

	before, _ := m.ctrl.Graph().Node("a")
	x, y := centerCell(t, m, "a")
	m = send(t, m, press(x, y, false))
	assert.Equal(t, canvas.ModeDragging, m.ctrl.State().Mode)
	m = send(t, m, motion(x+3, y+2))
	m = send(t, m, motion(x+6, y+4))
	m = send(t, m, release(x+6, y+4))

	after, _ := m.ctrl.Graph().Node("a")
	zoom := m.ctrl.State().Viewport.Zoom
	assert.InDelta(t, before.X+6*cellWidth/zoom, after.X, 1e-9)
	assert.InDelta(t, before.Y+4*cellHeight/zoom, after.Y, 1e-9)
	assert.Equal(t, canvas.ModeIdle, m.ctrl.State().Mode)
	assert.Equal(t, history.ActionMove, m.notice)
	assert.Len(t, pointers, 2, "every move is broadcast")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	undone, _ := m.ctrl.Graph().Node("a")
	assert.Equal(t, before.Origin(), undone.Origin())
}

func TestEditorResizeHandle(t *testing.T) {
	m := newTestEditor(t, twoNodes())
	n, _ := m.ctrl.Graph().Node("a")
	_, _, c2, r2 := nodeCells(m.ctrl.State().Viewport, n)

	assert.Equal(t, canvas.OnHandle("a", "se"), m.hitTest(c2, r2, false))
	m = send(t, m, press(c2, r2, false))
	assert.Equal(t, canvas.ModeResizing, m.ctrl.State().Mode)
	m = send(t, m, motion(c2+5, r2+2))
	m = send(t, m, release(c2+5, r2+2))

	resized, _ := m.ctrl.Graph().Node("a")
	assert.Greater(t, resized.Width, n.Width)
	assert.Greater(t, resized.Height, n.Height)
	assert.Equal(t, history.ActionResize, m.notice)
}

func TestEditorConnect(t *testing.T) {
	m := newTestEditor(t, twoNodes())
	ax, ay := centerCell(t, m, "a")
	bx, by := centerCell(t, m, "b")

	assert.Equal(t, canvas.OnConnector("a"), m.hitTest(ax, ay, true))
	m = send(t, m, press(ax, ay, true))
	assert.Equal(t, canvas.ModeConnecting, m.ctrl.State().Mode)
	m = send(t, m, motion(bx, by))
	assert.Contains(t, m.View(), ":", "rubber band is drawn")
	m = send(t, m, release(bx, by))

	assert.True(t, m.ctrl.Graph().HasEdge("a", "b"))
	assert.Equal(t, history.ActionConnect, m.notice)
	assert.Contains(t, m.View(), "▸")
}

func TestEditorEdgeLabelEdit(t *testing.T) {
	g := twoNodes()
	g.Edges = []diagram.Edge{{ID: "e", From: "a", To: "b", Label: "rel"}}
	m := newTestEditor(t, g)

	routes := m.ctrl.Routes()
	require.Len(t, routes, 1)
	x, y := toCell(m.ctrl.State().Viewport.ToScreen(routes[0].Path.Label))
	assert.Equal(t, canvas.OnEdgeLabel("e"), m.hitTest(x, y, false))

	m = send(t, m, press(x, y, false))
	m = send(t, m, release(x, y))
	assert.Equal(t, "e", m.ctrl.State().Selection.EdgeID)
	m = send(t, m, press(x, y, false))
	require.Equal(t, canvas.ModeEditingEdgeLabel, m.ctrl.State().Mode)

	m = send(t, m, runes("s"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = send(t, m, runes("ok"))
	assert.Contains(t, m.View(), "rels ok▏")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	e, _ := m.ctrl.Graph().Edge("e")
	assert.Equal(t, "rels ok", e.Label)
	assert.Equal(t, canvas.ModeIdle, m.ctrl.State().Mode)
}

func TestEditorShortcuts(t *testing.T) {
	m := newTestEditor(t, twoNodes())

	m = send(t, m, runes("n"))
	assert.Len(t, m.ctrl.Graph().Nodes, 3)
	assert.Equal(t, history.ActionAdd, m.notice)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Len(t, m.ctrl.Graph().Nodes, 2)

	m = send(t, m, runes("2"))
	assert.Equal(t, history.ActionLayout, m.notice)

	zoom := m.ctrl.State().Viewport.Zoom
	m = send(t, m, runes("-"))
	assert.InDelta(t, zoom-zoomStep, m.ctrl.State().Viewport.Zoom, 1e-9)

	pan := m.ctrl.State().Viewport.PanX
	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, pan+panStep, m.ctrl.State().Viewport.PanX)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, canvas.ToolPan, m.ctrl.State().Tool)
	assert.Contains(t, m.View(), "pan")
}

func TestEditorNodeLabelPrompt(t *testing.T) {
	m := newTestEditor(t, twoNodes())
	m.ctrl.Select("a")

	m = send(t, m, runes("e"))
	require.NotNil(t, m.label)
	assert.Contains(t, m.View(), "label: Alpha")

	for range len("Alpha") {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = send(t, m, runes("n"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Len(t, m.ctrl.Graph().Nodes, 2, "the prompt owns the keyboard")
	m = send(t, m, runes("ew"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, m.label)
	n, _ := m.ctrl.Graph().Node("a")
	assert.Equal(t, "new", n.Label)
}

func TestEditorSaveStatusAndQuit(t *testing.T) {
	ctrl := canvas.New()
	ctrl.Load(diagram.Document{Title: "T", Graph: twoNodes()})

	saved := make(chan diagram.Document, 1)
	saver := canvas.NewAutosaver(func(_ context.Context, doc diagram.Document) error {
		saved <- doc
		return nil
	})
	defer saver.Stop()

	m := newEditorModel(context.Background(), ctrl, saver)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = send(t, m, saveStatusMsg(canvas.StatusUnsaved))
	assert.Contains(t, m.View(), "unsaved")

	saver.Touch(ctrl.Document())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	select {
	case doc := <-saved:
		assert.Equal(t, "T", doc.Title)
	default:
		t.Fatal("quit did not flush")
	}
}

func TestGridLine(t *testing.T) {
	g := newGrid(5, 3)
	g.line(0, 0, 4, 2, '*')
	out := strings.Split(g.String(), "\n")
	require.Len(t, out, 3)
	assert.Equal(t, '*', []rune(out[0])[0])
	assert.Equal(t, '*', []rune(out[2])[4])

	g.centered(0, 2, 1, "abcdef")
	assert.Equal(t, "ab…", string([]rune(strings.Split(g.String(), "\n")[1])[:3]))
}
