package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/diagram"
)

func nodesN(n int) []diagram.Node {
	out := make([]diagram.Node, n)
	for i := range out {
		out[i] = diagram.Node{ID: fmt.Sprintf("n%d", i), X: float64(i)}
	}
	return out
}

func TestCapEviction(t *testing.T) {
	l := New(0)
	for i := 1; i <= 60; i++ {
		l.Commit(nodesN(i), nil, fmt.Sprintf("step %d", i))
	}

	require.Equal(t, 50, l.Len())
	assert.Equal(t, 49, l.Cursor())
	assert.Equal(t, "step 11", l.Entries()[0], "oldest 10 evicted")

	undos := 0
	for l.CanUndo() {
		_, ok := l.Undo()
		require.True(t, ok)
		undos++
	}
	assert.Equal(t, 49, undos)

	_, ok := l.Undo()
	assert.False(t, ok, "undo at boundary is a no-op")
	assert.Equal(t, 0, l.Cursor())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	l := New(DefaultCapacity)
	l.Reset(nil, nil, ActionLoad)

	var g diagram.Graph
	var err error
	const n = 8
	for i := 0; i < n; i++ {
		g, err = g.AddNode(diagram.Node{ID: fmt.Sprintf("n%d", i)})
		require.NoError(t, err)
		if i > 0 {
			g, _, err = g.AddEdge(fmt.Sprintf("n%d", i-1), fmt.Sprintf("n%d", i), "")
			require.NoError(t, err)
		}
		l.Commit(g.Nodes, g.Edges, ActionAdd)
	}
	final := g.Clone()

	var restored Snapshot
	for i := 0; i < n; i++ {
		s, ok := l.Undo()
		require.True(t, ok)
		restored = s
	}
	assert.Empty(t, restored.Nodes)
	assert.Equal(t, ActionLoad, restored.Action)

	for i := 0; i < n; i++ {
		s, ok := l.Redo()
		require.True(t, ok)
		restored = s
	}
	assert.Equal(t, final, restored.Graph())

	_, ok := l.Redo()
	assert.False(t, ok)
}

func TestCommitAfterUndoDropsRedo(t *testing.T) {
	l := New(10)
	l.Reset(nil, nil, ActionLoad)
	l.Commit(nodesN(1), nil, "a")
	l.Commit(nodesN(2), nil, "b")

	l.Undo()
	require.True(t, l.CanRedo())

	l.Commit(nodesN(3), nil, "c")
	assert.False(t, l.CanRedo())
	assert.Equal(t, []string{ActionLoad, "a", "c"}, l.Entries())
}

func TestSnapshotsAreCopies(t *testing.T) {
	l := New(5)
	nodes := nodesN(2)
	l.Reset(nodes, nil, ActionLoad)
	nodes[0].Label = "mutated"

	s, ok := l.Current()
	require.True(t, ok)
	assert.Empty(t, s.Nodes[0].Label)

	s.Nodes[1].Label = "also mutated"
	again, _ := l.Current()
	assert.Empty(t, again.Nodes[1].Label)
}

func TestEmptyLog(t *testing.T) {
	l := New(3)
	assert.Equal(t, -1, l.Cursor())
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
	_, ok := l.Current()
	assert.False(t, ok)

	l.Commit(nil, nil, "first")
	assert.Equal(t, 0, l.Cursor())
	assert.Equal(t, 3, l.Cap())
}
