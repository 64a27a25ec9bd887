package graph

import "github.com/avi3tal/weaveflow/pkg/types"

// ChangeType is the kind of delta carried by a NodeChange or EdgeChange.
type ChangeType string

const (
	ChangeAdd      ChangeType = "add"
	ChangeRemove   ChangeType = "remove"
	ChangePosition ChangeType = "position"
	ChangeSelect   ChangeType = "select"
)

// NodeChange is one delta in a batch applied by ApplyNodeChanges.
type NodeChange struct {
	Type ChangeType `json:"type"`
	ID   string     `json:"id"`

	// Item is the node to insert for ChangeAdd.
	Item *types.Node `json:"item,omitempty"`

	// Position and Dragging apply to ChangePosition. A change with Dragging
	// false marks the end of a drag.
	Position *types.Position `json:"position,omitempty"`
	Dragging bool            `json:"dragging,omitempty"`

	Selected bool `json:"selected,omitempty"`
}

// EdgeChange is one delta in a batch applied by ApplyEdgeChanges.
type EdgeChange struct {
	Type     ChangeType  `json:"type"`
	ID       string      `json:"id"`
	Item     *types.Edge `json:"item,omitempty"`
	Selected bool        `json:"selected,omitempty"`
}

// RemoveNodes builds a batch of remove changes.
func RemoveNodes(ids ...string) []NodeChange {
	out := make([]NodeChange, len(ids))
	for i, id := range ids {
		out[i] = NodeChange{Type: ChangeRemove, ID: id}
	}
	return out
}

// MoveNode builds a position change.
func MoveNode(id string, pos types.Position, dragging bool) NodeChange {
	return NodeChange{Type: ChangePosition, ID: id, Position: &pos, Dragging: dragging}
}

func hasRemoval[C NodeChange | EdgeChange](changes []C) bool {
	for _, c := range changes {
		switch v := any(c).(type) {
		case NodeChange:
			if v.Type == ChangeRemove {
				return true
			}
		case EdgeChange:
			if v.Type == ChangeRemove {
				return true
			}
		}
	}
	return false
}
