package canvas

import (
	"github.com/cooketh/flow/pkg/diagram"
)

// Mode is the interaction state of the controller.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeDragging
	ModeResizing
	ModeConnecting
	ModeEditingEdgeLabel
)

var modeNames = map[Mode]string{
	ModeIdle:             "idle",
	ModePanning:          "panning",
	ModeDragging:         "dragging",
	ModeResizing:         "resizing",
	ModeConnecting:       "connecting",
	ModeEditingEdgeLabel: "editing-edge-label",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// Tool is the pointer tool, orthogonal to Mode.
type Tool string

const (
	ToolPointer Tool = "pointer"
	ToolPan     Tool = "pan"
)

// Selection holds at most one selected node or edge.
type Selection struct {
	NodeID string
	EdgeID string
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return s.NodeID == "" && s.EdgeID == "" }

// DragState is live while a node is being moved.
type DragState struct {
	NodeID     string
	GrabOffset diagram.Point // pointer world position minus node origin
}

// ResizeState is live while a node is being resized.
type ResizeState struct {
	NodeID  string
	Handle  Handle
	Start   diagram.Point // screen position of the press
	Initial diagram.Rect
}

// ConnectState is live while a new edge is being dragged out.
type ConnectState struct {
	SourceID string
	Cursor   diagram.Point // world position of the pointer
}

// EditState is live while an edge label is being edited inline.
type EditState struct {
	EdgeID   string
	Buffer   string
	Original string
}

// State is the complete interaction state. The controller owns it and
// exposes copies; nothing outside the controller mutates it.
type State struct {
	Mode      Mode
	Tool      Tool
	Graph     diagram.Graph
	Viewport  Viewport
	Selection Selection

	// View size in screen pixels, used to place new nodes and fit content.
	ViewWidth  float64
	ViewHeight float64

	Title    string
	Comments []diagram.Comment

	Drag     DragState
	Resize   ResizeState
	Connect  ConnectState
	Edit     EditState
	PanStart diagram.Point // pointer screen position minus pan

	// before is the graph at gesture start, restored on cancel.
	before diagram.Graph
}

// viewCenter returns the world point at the center of the view.
func (s State) viewCenter() diagram.Point {
	return s.Viewport.ToWorld(diagram.Point{X: s.ViewWidth / 2, Y: s.ViewHeight / 2})
}

// Effect reports what a call to the controller changed.
type Effect struct {
	Graph     bool   // live graph changed
	View      bool   // viewport changed
	Selection bool   // selection or inline editor changed
	Commit    string // action label recorded in history, empty if none

	// Pointer is the world position of the pointer after a move, for
	// cursor broadcast. Nil when the event carried no position.
	Pointer *diagram.Point
}

func (e Effect) merge(o Effect) Effect {
	e.Graph = e.Graph || o.Graph
	e.View = e.View || o.View
	e.Selection = e.Selection || o.Selection
	if o.Commit != "" {
		e.Commit = o.Commit
	}
	if o.Pointer != nil {
		e.Pointer = o.Pointer
	}
	return e
}
