package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidGraph is wrapped by every structural violation reported by Validate.
var ErrInvalidGraph = errors.New("invalid graph")

// Snapshot is an immutable copy of the graph used by undo/redo.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewSnapshot deep-copies nodes and edges.
func NewSnapshot(nodes []Node, edges []Edge) Snapshot {
	return Snapshot{Nodes: CloneNodes(nodes), Edges: CloneEdges(edges)}
}

// Validate checks the structural rules of a graph: unique node and
// edge ids, known node kinds, image input bounds, existing endpoints, one
// edge per target handle and image edges only on declared inputs.
// Acyclicity is not checked here.
func (s Snapshot) Validate() error {
	ids := make(map[string]Node, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidGraph)
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidGraph, n.ID)
		}
		ids[n.ID] = n
		if !n.Kind.Valid() || n.Data == nil || n.Data.Kind() != n.Kind {
			return fmt.Errorf("%w: node %q has unknown kind %q", ErrInvalidGraph, n.ID, n.Kind)
		}
		if n.Kind == KindImageGenerator || n.Kind == KindLLMCaller {
			if c := n.ImageInputCount(); c < MinImageInputs || c > MaxImageInputs {
				return fmt.Errorf("%w: node %q declares %d image inputs", ErrInvalidGraph, n.ID, c)
			}
		}
	}

	edgeIDs := make(map[string]struct{}, len(s.Edges))
	occupied := make(map[[2]string]string, len(s.Edges))
	for _, e := range s.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("%w: duplicate edge id %q", ErrInvalidGraph, e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: edge %q references missing source %q", ErrInvalidGraph, e.ID, e.Source)
		}
		target, ok := ids[e.Target]
		if !ok {
			return fmt.Errorf("%w: edge %q references missing target %q", ErrInvalidGraph, e.ID, e.Target)
		}
		slot := [2]string{e.Target, e.TargetHandle}
		if other, taken := occupied[slot]; taken {
			return fmt.Errorf("%w: edges %q and %q both target %s.%s", ErrInvalidGraph, other, e.ID, e.Target, e.TargetHandle)
		}
		occupied[slot] = e.ID
		if IsImageHandle(e.TargetHandle) {
			if i, ok := ImageInIndex(e.TargetHandle); !ok || i >= target.ImageInputCount() {
				return fmt.Errorf("%w: edge %q targets undeclared input %s.%s", ErrInvalidGraph, e.ID, e.Target, e.TargetHandle)
			}
		}
	}
	return nil
}

// Workflow is a named, persisted graph.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Graph returns the workflow's graph as a snapshot.
func (w Workflow) Graph() Snapshot {
	return NewSnapshot(w.Nodes, w.Edges)
}

// Clone returns a deep copy of the workflow.
func (w Workflow) Clone() Workflow {
	out := w
	out.Nodes = CloneNodes(w.Nodes)
	out.Edges = CloneEdges(w.Edges)
	return out
}

func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}
