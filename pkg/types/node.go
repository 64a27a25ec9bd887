package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NodeKind identifies the variant of a node. The string values are the
// ones used in exported workflow files.
type NodeKind string

const (
	KindTextPrompt     NodeKind = "textNode"
	KindUpload         NodeKind = "uploadNode"
	KindImageGenerator NodeKind = "imageNode"
	KindLLMCaller      NodeKind = "llmNode"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindTextPrompt, KindUpload, KindImageGenerator, KindLLMCaller:
		return true
	}
	return false
}

// ProducesImages reports whether outputs of this kind travel on image edges.
func (k NodeKind) ProducesImages() bool {
	return k == KindUpload || k == KindImageGenerator
}

// Executable reports whether runNode does anything for this kind.
func (k NodeKind) Executable() bool {
	return k == KindImageGenerator || k == KindLLMCaller
}

// DefaultLabel is the label given to freshly created nodes.
func (k NodeKind) DefaultLabel() string {
	switch k {
	case KindTextPrompt:
		return "Prompt"
	case KindUpload:
		return "Upload"
	case KindImageGenerator:
		return "Image"
	case KindLLMCaller:
		return "Any LLM"
	}
	return string(k)
}

// Position is the canvas location of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the workflow graph.
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Selected bool     `json:"selected,omitempty"`
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.New().String()
}

// NewNode creates a node of the given kind with default data and a new id.
func NewNode(kind NodeKind, pos Position) (Node, error) {
	data, err := NewNodeData(kind)
	if err != nil {
		return Node{}, err
	}
	data.Base().Label = kind.DefaultLabel()
	return Node{
		ID:       fmt.Sprintf("%s-%s", kind, NewID()),
		Kind:     kind,
		Position: pos,
		Data:     data,
	}, nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Data != nil {
		out.Data = n.Data.Clone()
	}
	return out
}

// Base is a shortcut for n.Data.Base() that tolerates a nil payload.
func (n Node) Base() *BaseData {
	if n.Data == nil {
		return &BaseData{}
	}
	return n.Data.Base()
}

// ImageInputCount returns the declared number of image inputs, or 0 for
// kinds without image inputs.
func (n Node) ImageInputCount() int {
	switch d := n.Data.(type) {
	case *ImageGeneratorData:
		return d.ImageInputCount
	case *LLMCallerData:
		return d.ImageInputCount
	}
	return 0
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Kind     NodeKind        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
	Selected bool            `json:"selected,omitempty"`
}

// UnmarshalJSON decodes the data payload into the variant selected by the
// "type" field.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := NewNodeData(raw.Kind)
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return fmt.Errorf("node %q: decode data: %w", raw.ID, err)
		}
	}
	*n = Node{ID: raw.ID, Kind: raw.Kind, Position: raw.Position, Data: data, Selected: raw.Selected}
	return nil
}
