// Package graph holds the in-memory workflow graph: its mutation
// primitives, undo/redo snapshots and connection validation.
package graph

import (
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/avi3tal/weaveflow/internal/history"
	"github.com/avi3tal/weaveflow/pkg/types"
)

// ConnectionStart records the handle a pending connection was dragged from.
type ConnectionStart struct {
	NodeID     string `json:"nodeId"`
	HandleID   string `json:"handleId"`
	HandleType string `json:"handleType"`
}

// ConnectionFeedback is the advisory message shown for a rejected preview.
type ConnectionFeedback struct {
	NodeID   string `json:"nodeId"`
	HandleID string `json:"handleId"`
	Message  string `json:"message"`
}

// Store is the mutable graph of one open workflow. All methods are safe for
// concurrent use and every mutation is applied atomically.
type Store struct {
	nodes []types.Node
	edges []types.Edge

	connStart    *ConnectionStart
	connFeedback *ConnectionFeedback

	history  *history.Manager[types.Snapshot]
	drag     *Coalescer
	dragBase *types.Snapshot

	historyLimit int
	dragDebounce time.Duration
	clock        clock.Clock
	logger       zerolog.Logger
	debug        bool

	mu sync.RWMutex
}

// NewStore creates an empty graph store.
func NewStore(opt ...Option) *Store {
	s := &Store{
		historyLimit: history.DefaultLimit,
		dragDebounce: DefaultDragDebounce,
		clock:        clock.New(),
		logger:       zerolog.Nop(),
	}
	for _, o := range opt {
		o(s)
	}
	s.history = history.New[types.Snapshot](s.historyLimit)
	s.drag = NewCoalescer(s.clock, s.dragDebounce)
	return s
}

// Nodes returns a copy of the current nodes.
func (s *Store) Nodes() []types.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.CloneNodes(s.nodes)
}

// Edges returns a copy of the current edges.
func (s *Store) Edges() []types.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.CloneEdges(s.edges)
}

// Snapshot returns a deep copy of the current graph.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.NewSnapshot(s.nodes, s.edges)
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (types.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.nodeIndex(id)
	if i < 0 {
		return types.Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// IncomingEdges returns the edges targeting id in graph order.
func (s *Store) IncomingEdges(id string) []types.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Edge
	for _, e := range s.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Replace swaps in a whole new graph and clears history. Used when a
// workflow is loaded, imported or created.
func (s *Store) Replace(g types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
	s.dragBase = nil
	s.nodes = types.CloneNodes(g.Nodes)
	s.edges = types.CloneEdges(g.Edges)
	s.connStart = nil
	s.connFeedback = nil
	s.history.Reset()
}

// AddNode snapshots and appends n. A node whose id is already present is
// ignored and AddNode reports false.
func (s *Store) AddNode(n types.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nodeIndex(n.ID) >= 0 {
		s.logger.Debug().Str("node", n.ID).Msg("ignoring duplicate node")
		return false
	}
	s.snapshotLocked("add node")
	s.nodes = append(s.nodes, n.Clone())
	return true
}

// UpdateNodeData shallow-merges patch into the node's data. It never takes
// a snapshot. Lowering the image input count drops the edges on the inputs
// that no longer exist.
func (s *Store) UpdateNodeData(id string, patch types.NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.nodeIndex(id)
	if i < 0 {
		return NewValidationError("update node data", id, ErrNodeNotFound)
	}
	before := s.nodes[i].ImageInputCount()
	s.nodes[i].Data = patch.Apply(s.nodes[i].Data)
	if after := s.nodes[i].ImageInputCount(); after < before {
		s.edges = slices.DeleteFunc(s.edges, func(e types.Edge) bool {
			idx, ok := types.ImageInIndex(e.TargetHandle)
			return e.Target == id && ok && idx >= after
		})
	}
	return nil
}

// AddImageInput declares one more image input on an image generator or LLM
// caller node.
func (s *Store) AddImageInput(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.nodeIndex(id)
	if i < 0 {
		return 0, NewValidationError("add image input", id, ErrNodeNotFound)
	}
	n := s.nodes[i].ImageInputCount()
	if n == 0 {
		return 0, NewValidationError("add image input", id, ErrWrongNodeKind)
	}
	if n >= types.MaxImageInputs {
		return n, NewValidationError("add image input", id, ErrInputLimit)
	}
	s.nodes[i].Data = types.NodePatch{ImageInputCount: types.Ptr(n + 1)}.Apply(s.nodes[i].Data)
	return n + 1, nil
}

// Connect snapshots, drops any edge already occupying the target handle and
// appends the new edge. It does not validate; callers check
// ValidateConnection first.
func (s *Store) Connect(c types.Connection) types.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotLocked("connect")

	style := types.StyleFor(types.KindTextPrompt)
	if i := s.nodeIndex(c.Source); i >= 0 {
		style = types.StyleFor(s.nodes[i].Kind)
	}

	s.evictLocked(c.Target, c.TargetHandle)
	edge := types.Edge{
		ID:           c.EdgeID(),
		Source:       c.Source,
		SourceHandle: c.SourceHandle,
		Target:       c.Target,
		TargetHandle: c.TargetHandle,
		Style:        style,
	}
	s.edges = append(s.edges, edge)
	return edge
}

// ApplyNodeChanges applies a batch of node deltas atomically. A batch with a
// removal is snapshotted first. Position changes are coalesced: the graph
// as it was before the first move is committed to history once no drag has
// ended for the debounce window.
func (s *Store) ApplyNodeChanges(changes []NodeChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hasRemoval(changes) {
		s.snapshotLocked("remove nodes")
	}

	dragEnded := false
	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item != nil && s.nodeIndex(c.Item.ID) < 0 {
				s.nodes = append(s.nodes, c.Item.Clone())
			}
		case ChangeRemove:
			s.removeNodeLocked(c.ID)
		case ChangePosition:
			i := s.nodeIndex(c.ID)
			if i < 0 || c.Position == nil {
				continue
			}
			if s.dragBase == nil {
				base := types.NewSnapshot(s.nodes, s.edges)
				s.dragBase = &base
			}
			s.nodes[i].Position = *c.Position
			if !c.Dragging {
				dragEnded = true
			}
		case ChangeSelect:
			if i := s.nodeIndex(c.ID); i >= 0 {
				s.nodes[i].Selected = c.Selected
			}
		}
	}

	if dragEnded {
		s.drag.Schedule(s.commitDrag)
	}
}

// ApplyEdgeChanges applies a batch of edge deltas atomically. A batch with a
// removal is snapshotted first. An added edge replaces the one already on its
// target handle.
func (s *Store) ApplyEdgeChanges(changes []EdgeChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hasRemoval(changes) {
		s.snapshotLocked("remove edges")
	}

	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item != nil && s.edgeIndex(c.Item.ID) < 0 {
				s.evictLocked(c.Item.Target, c.Item.TargetHandle)
				s.edges = append(s.edges, *c.Item)
			}
		case ChangeRemove:
			s.edges = slices.DeleteFunc(s.edges, func(e types.Edge) bool { return e.ID == c.ID })
		case ChangeSelect:
			if i := s.edgeIndex(c.ID); i >= 0 {
				s.edges[i].Selected = c.Selected
			}
		}
	}
}

// TakeSnapshot records the current graph in history.
func (s *Store) TakeSnapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotLocked("explicit")
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushDragLocked()
	prev, ok := s.history.Undo(types.NewSnapshot(s.nodes, s.edges))
	if !ok {
		return false
	}
	s.nodes, s.edges = types.CloneNodes(prev.Nodes), types.CloneEdges(prev.Edges)
	return true
}

// Redo re-applies the snapshot most recently undone.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushDragLocked()
	next, ok := s.history.Redo(types.NewSnapshot(s.nodes, s.edges))
	if !ok {
		return false
	}
	s.nodes, s.edges = types.CloneNodes(next.Nodes), types.CloneEdges(next.Edges)
	return true
}

// HistoryLen returns the sizes of the undo and redo stacks.
func (s *Store) HistoryLen() (past, future int) {
	return s.history.Len()
}

// ValidateConnection checks c against the current graph without mutating it.
func (s *Store) ValidateConnection(c types.Connection) ConnectionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ValidateConnection(s.nodes, s.edges, c)
}

// PreviewConnection validates c and records the outcome as transient
// feedback for the target handle.
func (s *Store) PreviewConnection(c types.Connection) ConnectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := ValidateConnection(s.nodes, s.edges, c)
	if res.IsValid || res.Message == "" {
		s.connFeedback = nil
	} else {
		s.connFeedback = &ConnectionFeedback{NodeID: c.Target, HandleID: c.TargetHandle, Message: res.Message}
	}
	return res
}

func (s *Store) SetConnectionStart(start *ConnectionStart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connStart = start
}

func (s *Store) ConnectionStart() *ConnectionStart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connStart
}

func (s *Store) SetConnectionFeedback(fb *ConnectionFeedback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connFeedback = fb
}

func (s *Store) ConnectionFeedback() *ConnectionFeedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connFeedback
}

func (s *Store) snapshotLocked(reason string) {
	s.flushDragLocked()
	s.history.Take(types.NewSnapshot(s.nodes, s.edges))
	if s.debug {
		past, _ := s.history.Len()
		s.logger.Debug().Str("reason", reason).Int("past", past).Msg("snapshot taken")
	}
}

// flushDragLocked commits a pending drag snapshot immediately so that it
// lands in history before whatever is about to happen.
func (s *Store) flushDragLocked() {
	if s.dragBase == nil {
		return
	}
	s.drag.Cancel()
	s.history.Take(*s.dragBase)
	s.dragBase = nil
}

func (s *Store) commitDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragBase == nil {
		return
	}
	s.history.Take(*s.dragBase)
	s.dragBase = nil
	if s.debug {
		s.logger.Debug().Msg("drag snapshot committed")
	}
}

// evictLocked drops the edge occupying the target handle, if any.
func (s *Store) evictLocked(target, handle string) {
	s.edges = slices.DeleteFunc(s.edges, func(e types.Edge) bool {
		return e.Target == target && e.TargetHandle == handle
	})
}

func (s *Store) removeNodeLocked(id string) {
	s.nodes = slices.DeleteFunc(s.nodes, func(n types.Node) bool { return n.ID == id })
	s.edges = slices.DeleteFunc(s.edges, func(e types.Edge) bool {
		return e.Source == id || e.Target == id
	})
}

func (s *Store) nodeIndex(id string) int {
	return slices.IndexFunc(s.nodes, func(n types.Node) bool { return n.ID == id })
}

func (s *Store) edgeIndex(id string) int {
	return slices.IndexFunc(s.edges, func(e types.Edge) bool { return e.ID == id })
}
