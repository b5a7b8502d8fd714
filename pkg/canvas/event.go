package canvas

import (
	"strings"

	"github.com/cooketh/flow/pkg/diagram"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// TargetKind classifies what lies under the pointer.
type TargetKind int

const (
	TargetCanvas    TargetKind = iota // empty background
	TargetNode                        // node body
	TargetHandle                      // resize handle on a node
	TargetConnector                   // connection affordance on a node
	TargetEdgeLabel                   // label region of an edge
)

// Handle names a resize handle by the edges it moves: one of n, s, e, w or
// a corner such as ne or sw.
type Handle string

// Handles lists every resize handle.
var Handles = []Handle{"n", "s", "e", "w", "ne", "nw", "se", "sw"}

// Has reports whether the handle moves the given edge ('n', 's', 'e' or 'w').
func (h Handle) Has(edge byte) bool {
	return strings.IndexByte(string(h), edge) >= 0
}

// Target is the hit-test result attached to pointer events.
type Target struct {
	Kind   TargetKind
	NodeID string
	EdgeID string
	Handle Handle
}

// Canvas, OnNode, OnHandle, OnConnector and OnEdgeLabel build targets.
func Canvas() Target { return Target{Kind: TargetCanvas} }
func OnNode(id string) Target { return Target{Kind: TargetNode, NodeID: id} }
func OnHandle(id string, h Handle) Target { return Target{Kind: TargetHandle, NodeID: id, Handle: h} }
func OnConnector(id string) Target { return Target{Kind: TargetConnector, NodeID: id} }
func OnEdgeLabel(edgeID string) Target { return Target{Kind: TargetEdgeLabel, EdgeID: edgeID} }

// Event is an input delivered to [Controller.Handle].
type Event interface {
	isEvent()
}

// PointerDown is a button press at a screen position.
type PointerDown struct {
	Screen diagram.Point
	Button Button
	Target Target
}

// PointerMove is pointer motion to a screen position.
type PointerMove struct {
	Screen diagram.Point
}

// PointerUp is a button release. Target is what lies under the release
// point; a zero Target means the controller hit-tests the graph itself.
type PointerUp struct {
	Screen diagram.Point
	Target Target
}

// DoubleClick is a double press on a target.
type DoubleClick struct {
	Screen diagram.Point
	Target Target
}

// Key is a key press. Key holds either a named key (Delete, Backspace,
// Escape, Enter) or a single character. TextFocus is set when a text input
// outside the canvas owns the keyboard; such keys are ignored.
type Key struct {
	Key       string
	Ctrl      bool
	Meta      bool
	Shift     bool
	Alt       bool
	TextFocus bool
}

// Named keys.
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
	KeyEnter     = "Enter"
)

// TextInput delivers typed text to the open inline editor. Replace swaps the
// whole buffer instead of appending.
type TextInput struct {
	Text    string
	Replace bool
}

// Blur reports that the canvas lost keyboard focus.
type Blur struct{}

// Resize reports the size of the view in screen pixels.
type Resize struct {
	Width, Height float64
}

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (DoubleClick) isEvent() {}
func (Key) isEvent()         {}
func (TextInput) isEvent()   {}
func (Blur) isEvent()        {}
func (Resize) isEvent()      {}
