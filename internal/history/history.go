// Package history keeps a bounded undo/redo stack of snapshots.
package history

import "sync"

// DefaultLimit is the number of past snapshots kept before the oldest is evicted.
const DefaultLimit = 20

// Manager is a bounded undo/redo stack. It stores whatever it is given, so
// callers must hand it values they will not mutate afterwards.
type Manager[T any] struct {
	past   []T
	future []T
	limit  int
	mu     sync.Mutex
}

// New creates a manager holding at most limit past snapshots. A
// non-positive limit falls back to DefaultLimit.
func New[T any](limit int) *Manager[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager[T]{limit: limit}
}

// Take records current as the newest past entry and clears the redo stack.
func (m *Manager[T]) Take(current T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.past = append(m.past, current)
	if len(m.past) > m.limit {
		m.past = m.past[len(m.past)-m.limit:]
	}
	m.future = nil
}

// Undo pops the newest past entry and pushes current onto the front of the
// redo stack. It reports false, leaving everything untouched, when there is
// nothing to undo.
func (m *Manager[T]) Undo(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.past) == 0 {
		return zero, false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append([]T{current}, m.future...)
	return prev, true
}

// Redo is the mirror of Undo.
func (m *Manager[T]) Redo(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.future) == 0 {
		return zero, false
	}
	next := m.future[0]
	m.future = m.future[1:]
	m.past = append(m.past, current)
	return next, true
}

// Reset drops both stacks.
func (m *Manager[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = nil
	m.future = nil
}

// Len returns the sizes of the undo and redo stacks.
func (m *Manager[T]) Len() (past, future int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past), len(m.future)
}

func (m *Manager[T]) CanUndo() bool {
	p, _ := m.Len()
	return p > 0
}

func (m *Manager[T]) CanRedo() bool {
	_, f := m.Len()
	return f > 0
}
