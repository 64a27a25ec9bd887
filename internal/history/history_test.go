package history

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	t.Parallel()
	m := New[int](DefaultLimit)

	// states 0 -> 1 -> 2 -> 3, snapshotting before each mutation
	current := 0
	for i := 1; i <= 3; i++ {
		m.Take(current)
		current = i
	}

	for i := 0; i < 3; i++ {
		prev, ok := m.Undo(current)
		require.True(t, ok)
		current = prev
	}
	require.Equal(t, 0, current, "three undos should restore the initial state")
	require.False(t, m.CanUndo())

	for i := 0; i < 3; i++ {
		next, ok := m.Redo(current)
		require.True(t, ok)
		current = next
	}
	require.Equal(t, 3, current, "three redos should restore the final state")
	require.False(t, m.CanRedo())
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	t.Parallel()
	m := New[string](0)

	_, ok := m.Undo("now")
	require.False(t, ok)
	_, ok = m.Redo("now")
	require.False(t, ok)

	past, future := m.Len()
	require.Zero(t, past)
	require.Zero(t, future)
}

func TestBoundEvictsOldest(t *testing.T) {
	t.Parallel()
	m := New[int](DefaultLimit)
	for i := 0; i < 25; i++ {
		m.Take(i)
	}
	past, _ := m.Len()
	require.Equal(t, 20, past)

	// the oldest five were evicted, so the deepest undo lands on 5
	current := 25
	for m.CanUndo() {
		current, _ = m.Undo(current)
	}
	require.Equal(t, 5, current)
}

func TestTakeClearsFuture(t *testing.T) {
	t.Parallel()
	m := New[int](DefaultLimit)
	m.Take(0)
	_, ok := m.Undo(1)
	require.True(t, ok)
	require.True(t, m.CanRedo())

	m.Take(0)
	require.False(t, m.CanRedo(), "a new snapshot invalidates redo")
}

func TestReset(t *testing.T) {
	t.Parallel()
	m := New[int](3)
	m.Take(1)
	m.Take(2)
	_, _ = m.Undo(3)
	m.Reset()
	past, future := m.Len()
	require.Zero(t, past)
	require.Zero(t, future)
}
