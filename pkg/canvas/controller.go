package canvas

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/history"
	"github.com/cooketh/flow/pkg/observability"
)

// Controller translates pointer and keyboard events into graph mutations.
// It exclusively owns the live graph and viewport for one editing session
// and pushes every committed mutation through a [history.Log] exactly once.
//
// Controller is not safe for concurrent use. All events and commands must
// come from the same goroutine.
type Controller struct {
	state  State
	hist   *history.Log
	logger *log.Logger
	hooks  []func(action string)
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHistoryCapacity sets the maximum number of undo entries.
func WithHistoryCapacity(n int) Option {
	return func(c *Controller) { c.hist = history.New(n) }
}

// OnChange registers fn to be called after every change to the document
// (commits, undo, redo, title and comment edits) with the action label.
// Autosave hooks in here.
func OnChange(fn func(action string)) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, fn) }
}

// New creates a controller holding an empty document.
func New(opts ...Option) *Controller {
	c := &Controller{
		hist:   history.New(history.DefaultCapacity),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = State{Tool: ToolPointer, Viewport: Identity, Title: "Untitled Map"}
	c.hist.Reset(nil, nil, history.ActionNew)
	return c
}

// State returns a copy of the current interaction state.
func (c *Controller) State() State { return c.state }

// Graph returns the live graph.
func (c *Controller) Graph() diagram.Graph { return c.state.Graph }

// History returns the undo log. Callers may inspect it but must not commit
// to it directly.
func (c *Controller) History() *history.Log { return c.hist }

// Handle applies one input event and reports what changed.
func (c *Controller) Handle(ev Event) Effect {
	switch ev := ev.(type) {
	case PointerDown:
		return c.pointerDown(ev)
	case PointerMove:
		return c.pointerMove(ev)
	case PointerUp:
		return c.pointerUp(ev)
	case DoubleClick:
		return c.doubleClick(ev)
	case Key:
		return c.key(ev)
	case TextInput:
		return c.textInput(ev)
	case Blur:
		return c.blur()
	case Resize:
		c.state.ViewWidth, c.state.ViewHeight = ev.Width, ev.Height
		return Effect{View: true}
	}
	return Effect{}
}

// =============================================================================
// Pointer
// =============================================================================

func (c *Controller) pointerDown(ev PointerDown) Effect {
	var eff Effect
	if c.state.Mode == ModeEditingEdgeLabel {
		eff = c.cancelEdit()
	}
	if c.state.Mode != ModeIdle {
		return eff
	}
	world := c.state.Viewport.ToWorld(ev.Screen)

	if ev.Button == ButtonMiddle || (c.state.Tool == ToolPan && ev.Target.Kind == TargetCanvas) {
		c.state.Mode = ModePanning
		c.state.PanStart = ev.Screen.Sub(diagram.Point{X: c.state.Viewport.PanX, Y: c.state.Viewport.PanY})
		return eff.merge(c.selectNone())
	}
	if ev.Button != ButtonLeft {
		return eff
	}

	switch ev.Target.Kind {
	case TargetCanvas:
		return eff.merge(c.selectNone())

	case TargetNode:
		n, ok := c.state.Graph.Node(ev.Target.NodeID)
		if !ok || c.state.Tool == ToolPan {
			return eff
		}
		eff = eff.merge(c.selectNode(n.ID))
		c.begin(ModeDragging)
		c.state.Drag = DragState{NodeID: n.ID, GrabOffset: world.Sub(n.Origin())}
		return eff

	case TargetHandle:
		n, ok := c.state.Graph.Node(ev.Target.NodeID)
		if !ok || ev.Target.Handle == "" {
			return eff
		}
		eff = eff.merge(c.selectNode(n.ID))
		c.begin(ModeResizing)
		c.state.Resize = ResizeState{NodeID: n.ID, Handle: ev.Target.Handle, Start: ev.Screen, Initial: n.Bounds()}
		return eff

	case TargetConnector:
		if _, ok := c.state.Graph.Node(ev.Target.NodeID); !ok {
			return eff
		}
		c.begin(ModeConnecting)
		c.state.Connect = ConnectState{SourceID: ev.Target.NodeID, Cursor: world}
		return eff.merge(Effect{Selection: true})

	case TargetEdgeLabel:
		if _, ok := c.state.Graph.Edge(ev.Target.EdgeID); ok {
			return eff.merge(c.selectEdge(ev.Target.EdgeID))
		}
	}
	return eff
}

func (c *Controller) pointerMove(ev PointerMove) Effect {
	world := c.state.Viewport.ToWorld(ev.Screen)
	eff := Effect{Pointer: &world}

	switch c.state.Mode {
	case ModePanning:
		c.state.Viewport.PanX = ev.Screen.X - c.state.PanStart.X
		c.state.Viewport.PanY = ev.Screen.Y - c.state.PanStart.Y
		eff.View = true

	case ModeDragging:
		d := c.state.Drag
		origin := world.Sub(d.GrabOffset)
		if c.setLive(d.NodeID, diagram.NodePatch{X: &origin.X, Y: &origin.Y}) {
			eff.Graph = true
		}

	case ModeResizing:
		r := c.state.Resize
		z := c.state.Viewport.zoom()
		box := ResizeBox(r.Initial, r.Handle, (ev.Screen.X-r.Start.X)/z, (ev.Screen.Y-r.Start.Y)/z)
		if c.setLive(r.NodeID, diagram.NodePatch{X: &box.X, Y: &box.Y, Width: &box.W, Height: &box.H}) {
			eff.Graph = true
		}

	case ModeConnecting:
		c.state.Connect.Cursor = world
		eff.Graph = true
	}
	return eff
}

func (c *Controller) pointerUp(ev PointerUp) Effect {
	switch c.state.Mode {
	case ModePanning:
		c.state.Mode = ModeIdle
		return Effect{View: true}

	case ModeDragging:
		return c.finishGesture(c.state.Drag.NodeID, history.ActionMove)

	case ModeResizing:
		return c.finishGesture(c.state.Resize.NodeID, history.ActionResize)

	case ModeConnecting:
		src := c.state.Connect.SourceID
		c.end()
		target := ev.Target.NodeID
		if target == "" {
			if n, ok := c.state.Graph.NodeAt(c.state.Viewport.ToWorld(ev.Screen)); ok {
				target = n.ID
			}
		}
		eff := Effect{Graph: true, Selection: true}
		if target == "" || target == src {
			return eff
		}
		return eff.merge(c.Connect(src, target))
	}
	return Effect{}
}

// finishGesture commits a drag or resize if the node's box changed.
func (c *Controller) finishGesture(id, action string) Effect {
	before, _ := c.state.before.Node(id)
	after, _ := c.state.Graph.Node(id)
	c.end()
	if before.Bounds() == after.Bounds() {
		return Effect{}
	}
	return c.commit(action)
}

// ResizeBox returns the box produced by dragging handle h of a node whose
// box was initial by (dx, dy) world units. Width and height never drop
// below [diagram.MinSize]; n and w handles move the origin so the opposite
// edge stays put.
func ResizeBox(initial diagram.Rect, h Handle, dx, dy float64) diagram.Rect {
	b := initial
	if h.Has('e') {
		b.W = max(diagram.MinSize, initial.W+dx)
	}
	if h.Has('s') {
		b.H = max(diagram.MinSize, initial.H+dy)
	}
	if h.Has('w') {
		b.W = max(diagram.MinSize, initial.W-dx)
		b.X = initial.X + (initial.W - b.W)
	}
	if h.Has('n') {
		b.H = max(diagram.MinSize, initial.H-dy)
		b.Y = initial.Y + (initial.H - b.H)
	}
	return b
}

func (c *Controller) doubleClick(ev DoubleClick) Effect {
	if ev.Target.Kind != TargetEdgeLabel {
		return Effect{}
	}
	e, ok := c.state.Graph.Edge(ev.Target.EdgeID)
	if !ok {
		return Effect{}
	}
	var eff Effect
	if c.state.Mode == ModeEditingEdgeLabel {
		eff = c.cancelEdit()
	}
	if c.state.Mode != ModeIdle {
		return eff
	}
	eff = eff.merge(c.selectEdge(e.ID))
	c.state.Mode = ModeEditingEdgeLabel
	c.state.Edit = EditState{EdgeID: e.ID, Buffer: e.Label, Original: e.Label}
	return eff
}

// =============================================================================
// Keyboard
// =============================================================================

func (c *Controller) key(ev Key) Effect {
	if c.state.Mode == ModeEditingEdgeLabel {
		return c.editKey(ev)
	}
	if ev.TextFocus {
		return Effect{}
	}
	if ev.Key == KeyEscape {
		return c.Cancel()
	}
	if c.state.Mode != ModeIdle {
		return Effect{}
	}

	k := strings.ToLower(ev.Key)
	switch {
	case ev.Key == KeyDelete || ev.Key == KeyBackspace:
		return c.DeleteSelection()
	case ev.Ctrl || ev.Meta:
		switch k {
		case "p":
			return c.SetTool(ToolPointer)
		case "a":
			return c.SetTool(ToolPan)
		case "s":
			_, eff := c.AddNode(diagram.KindSticky)
			return eff
		case "r":
			return c.FitToContent(c.state.ViewWidth, c.state.ViewHeight)
		case "z":
			if ev.Shift {
				return c.Redo()
			}
			return c.Undo()
		}
	case ev.Alt && k == "t":
		_, eff := c.AddNode(diagram.KindText)
		return eff
	}
	return Effect{}
}

func (c *Controller) editKey(ev Key) Effect {
	switch ev.Key {
	case KeyEnter:
		return c.commitEdit()
	case KeyEscape:
		return c.cancelEdit()
	case KeyBackspace:
		b := []rune(c.state.Edit.Buffer)
		if len(b) > 0 {
			c.state.Edit.Buffer = string(b[:len(b)-1])
		}
		return Effect{Selection: true}
	}
	return Effect{}
}

func (c *Controller) textInput(ev TextInput) Effect {
	if c.state.Mode != ModeEditingEdgeLabel {
		return Effect{}
	}
	if ev.Replace {
		c.state.Edit.Buffer = ev.Text
	} else {
		c.state.Edit.Buffer += ev.Text
	}
	return Effect{Selection: true}
}

func (c *Controller) blur() Effect {
	switch c.state.Mode {
	case ModeEditingEdgeLabel:
		return c.commitEdit()
	case ModeIdle:
		return Effect{}
	}
	return c.Cancel()
}

func (c *Controller) commitEdit() Effect {
	ed := c.state.Edit
	c.state.Mode = ModeIdle
	c.state.Edit = EditState{}
	eff := Effect{Selection: true}
	if ed.Buffer == ed.Original {
		return eff
	}
	return eff.merge(c.RenameEdge(ed.EdgeID, ed.Buffer))
}

func (c *Controller) cancelEdit() Effect {
	c.state.Mode = ModeIdle
	c.state.Edit = EditState{}
	return Effect{Selection: true}
}

// Cancel abandons any gesture in progress, restoring the graph as it was
// when the gesture began, and clears the selection. Nothing is committed.
func (c *Controller) Cancel() Effect {
	eff := Effect{Selection: true}
	switch c.state.Mode {
	case ModeDragging, ModeResizing, ModeConnecting:
		c.state.Graph = c.state.before
		eff.Graph = true
	}
	c.end()
	c.state.Edit = EditState{}
	c.state.Selection = Selection{}
	return eff
}

// =============================================================================
// Internals
// =============================================================================

// begin enters a gesture mode and remembers the graph for cancel.
func (c *Controller) begin(m Mode) {
	c.state.Mode = m
	c.state.before = c.state.Graph
}

func (c *Controller) end() {
	c.state.Mode = ModeIdle
	c.state.Drag = DragState{}
	c.state.Resize = ResizeState{}
	c.state.Connect = ConnectState{}
	c.state.before = diagram.Graph{}
}

// setLive updates a node without touching history.
func (c *Controller) setLive(id string, p diagram.NodePatch) bool {
	g, err := c.state.Graph.UpdateNode(id, p)
	if err != nil {
		return false
	}
	c.state.Graph = g
	return true
}

// commit records the live graph in history and notifies change hooks.
func (c *Controller) commit(action string) Effect {
	c.hist.Commit(c.state.Graph.Nodes, c.state.Graph.Edges, action)
	observability.Canvas().OnCommit(action, len(c.state.Graph.Nodes), len(c.state.Graph.Edges))
	c.logger.Debug("commit", "action", action, "nodes", len(c.state.Graph.Nodes), "edges", len(c.state.Graph.Edges), "history", c.hist.Len())
	c.changed(action)
	return Effect{Graph: true, Commit: action}
}

// apply replaces the live graph and commits it.
func (c *Controller) apply(g diagram.Graph, action string) Effect {
	c.state.Graph = g
	c.pruneSelection()
	return c.commit(action)
}

func (c *Controller) changed(action string) {
	for _, fn := range c.hooks {
		fn(action)
	}
}

func (c *Controller) selectNode(id string) Effect {
	c.state.Selection = Selection{NodeID: id}
	c.state.Edit = EditState{}
	return Effect{Selection: true}
}

func (c *Controller) selectEdge(id string) Effect {
	c.state.Selection = Selection{EdgeID: id}
	c.state.Edit = EditState{}
	return Effect{Selection: true}
}

func (c *Controller) selectNone() Effect {
	c.state.Selection = Selection{}
	c.state.Edit = EditState{}
	return Effect{Selection: true}
}

// pruneSelection drops a selection that no longer exists in the graph.
func (c *Controller) pruneSelection() {
	s := c.state.Selection
	if s.NodeID != "" {
		if _, ok := c.state.Graph.Node(s.NodeID); !ok {
			c.state.Selection = Selection{}
		}
	}
	if s.EdgeID != "" {
		if _, ok := c.state.Graph.Edge(s.EdgeID); !ok {
			c.state.Selection = Selection{}
		}
	}
}

// isNoop reports errors that leave the graph unchanged by design.
func isNoop(err error) bool {
	return errors.Is(err, diagram.ErrDuplicateEdge) || errors.Is(err, diagram.ErrSelfLoop)
}
