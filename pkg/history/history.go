// Package history is a bounded undo/redo log of graph snapshots.
//
// A [Log] holds at most its capacity of [Snapshot] values and a cursor
// pointing at the entry that matches the live graph. Committing after an
// undo discards the undone branch. When the log grows past capacity the
// oldest entry is evicted.
//
// The log never touches the live graph. [Log.Undo] and [Log.Redo] return
// the snapshot the caller should restore.
package history

import (
	"slices"

	"github.com/cooketh/flow/pkg/diagram"
)

// DefaultCapacity is the number of entries kept by a log created with
// [New](0).
const DefaultCapacity = 50

// Action labels used by the canvas for committed mutations.
const (
	ActionLoad       = "Load Map"
	ActionNew        = "New Map"
	ActionMove       = "Move Node"
	ActionResize     = "Resize Node"
	ActionConnect    = "Add Connection"
	ActionRename     = "Rename Connection"
	ActionDelete     = "Delete Node"
	ActionDeleteEdge = "Delete Connection"
	ActionAdd        = "Add Node"
	ActionLayout     = "Auto Layout"
	ActionGenerate   = "AI Generate"
	ActionClear      = "Clear Canvas"
	ActionStyle      = "Update Text Style"
	ActionImport     = "Import Map"
)

// Snapshot is an immutable copy of the graph tagged with the action that
// produced it.
type Snapshot struct {
	Nodes  []diagram.Node `json:"nodes"`
	Edges  []diagram.Edge `json:"edges"`
	Action string         `json:"action"`
}

// Graph returns a fresh graph holding a copy of the snapshot's contents.
func (s Snapshot) Graph() diagram.Graph {
	return diagram.Graph{Nodes: slices.Clone(s.Nodes), Edges: slices.Clone(s.Edges)}
}

func snapshot(nodes []diagram.Node, edges []diagram.Edge, action string) Snapshot {
	return Snapshot{Nodes: slices.Clone(nodes), Edges: slices.Clone(edges), Action: action}
}

// Log is a bounded undo/redo history. The zero value is not usable; call
// [New].
type Log struct {
	entries []Snapshot
	cursor  int
	cap     int
}

// New creates an empty log holding at most capacity entries. A capacity
// below 1 selects [DefaultCapacity].
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{cursor: -1, cap: capacity}
}

// Reset discards all entries and starts a new session with a single entry.
func (l *Log) Reset(nodes []diagram.Node, edges []diagram.Edge, action string) {
	l.entries = []Snapshot{snapshot(nodes, edges, action)}
	l.cursor = 0
}

// Commit records a new entry after the cursor, dropping any redo branch
// and evicting the oldest entry when the log is full.
func (l *Log) Commit(nodes []diagram.Node, edges []diagram.Edge, action string) {
	l.entries = append(l.entries[:l.cursor+1], snapshot(nodes, edges, action))
	if len(l.entries) > l.cap {
		l.entries = slices.Delete(l.entries, 0, len(l.entries)-l.cap)
	}
	l.cursor = len(l.entries) - 1
}

// Undo moves the cursor back one entry and returns the snapshot to restore.
// It returns false at the oldest entry.
func (l *Log) Undo() (Snapshot, bool) {
	if !l.CanUndo() {
		return Snapshot{}, false
	}
	l.cursor--
	return l.current(), true
}

// Redo moves the cursor forward one entry and returns the snapshot to
// restore. It returns false at the newest entry.
func (l *Log) Redo() (Snapshot, bool) {
	if !l.CanRedo() {
		return Snapshot{}, false
	}
	l.cursor++
	return l.current(), true
}

func (l *Log) CanUndo() bool { return l.cursor > 0 }
func (l *Log) CanRedo() bool { return l.cursor < len(l.entries)-1 }

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Cursor returns the index of the entry matching the live graph, or -1 for
// an empty log.
func (l *Log) Cursor() int { return l.cursor }

// Cap returns the maximum number of entries.
func (l *Log) Cap() int { return l.cap }

// Current returns the entry at the cursor.
func (l *Log) Current() (Snapshot, bool) {
	if l.cursor < 0 {
		return Snapshot{}, false
	}
	return l.current(), true
}

// Entries returns the action labels of all entries, oldest first.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	for i, s := range l.entries {
		out[i] = s.Action
	}
	return out
}

// current returns a copy so callers can never alias stored slices.
func (l *Log) current() Snapshot {
	s := l.entries[l.cursor]
	return snapshot(s.Nodes, s.Edges, s.Action)
}
