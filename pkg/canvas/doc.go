// Package canvas implements the interactive editing session: the state
// machine that turns pointer and keyboard input into graph mutations, the
// pan/zoom viewport and debounced autosave.
//
// # Overview
//
// A [Controller] owns the live [diagram.Graph] and [Viewport]. Front ends
// (the terminal editor, the HTTP API) hit-test their own widgets and feed
// the results in as [Event] values:
//
//	c := canvas.New(canvas.OnChange(func(string) { saver.Touch(c.Document()) }))
//	c.Handle(canvas.Resize{Width: 1280, Height: 800})
//	c.Handle(canvas.PointerDown{Screen: p, Target: canvas.OnNode(id)})
//	c.Handle(canvas.PointerMove{Screen: q})
//	c.Handle(canvas.PointerUp{Screen: q})   // commits "Move Node"
//
// # States
//
// The controller is in exactly one [Mode]: idle, panning, dragging a node,
// resizing a node, connecting an edge, or editing an edge label. The
// [Tool] (pointer or pan) is orthogonal to it. Pointer moves only change
// live state; the pointer-up that ends a drag or resize commits one history
// entry, and only if the node's box actually changed. Escape cancels any
// gesture and restores the graph as it was when the gesture began.
//
// # History
//
// Every committed mutation goes through [history.Log] exactly once.
// [Controller.Undo] and [Controller.Redo] restore snapshots verbatim.
//
// # Autosave
//
// [Autosaver] debounces saves with a quiet window. Save failures are
// reported through [SaveStatus] and never touch history.
package canvas
