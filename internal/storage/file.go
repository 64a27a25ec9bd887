package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/avi3tal/weaveflow/pkg/types"
)

// ImportedWorkflowName names imported files that carry no name.
const ImportedWorkflowName = "Imported Workflow"

// ErrInvalidFormat is returned when an import is missing its node or edge list.
var ErrInvalidFormat = errors.New("Invalid format")

// File is the portable workflow document.
type File struct {
	Name  string       `json:"name"`
	Nodes []types.Node `json:"nodes"`
	Edges []types.Edge `json:"edges"`
}

// Export writes name and graph as an indented JSON document.
func Export(w io.Writer, name string, g types.Snapshot) error {
	f := File{Name: name, Nodes: g.Nodes, Edges: g.Edges}
	if f.Nodes == nil {
		f.Nodes = []types.Node{}
	}
	if f.Edges == nil {
		f.Edges = []types.Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// ExportFileName is the download name for a workflow export.
func ExportFileName(name string) string {
	return strings.ToLower(name) + ".json"
}

// Import reads a workflow document. Both nodes and edges must be JSON
// arrays; the name falls back to ImportedWorkflowName.
func Import(r io.Reader) (File, error) {
	var raw struct {
		Name  string          `json:"name"`
		Nodes json.RawMessage `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return File{}, errors.Join(ErrInvalidFormat, err)
	}
	if !isArray(raw.Nodes) || !isArray(raw.Edges) {
		return File{}, ErrInvalidFormat
	}

	f := File{Name: raw.Name}
	if err := json.Unmarshal(raw.Nodes, &f.Nodes); err != nil {
		return File{}, errors.Join(ErrInvalidFormat, err)
	}
	if err := json.Unmarshal(raw.Edges, &f.Edges); err != nil {
		return File{}, errors.Join(ErrInvalidFormat, err)
	}
	if f.Name == "" {
		f.Name = ImportedWorkflowName
	}
	return f, nil
}

func isArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}

// Graph returns the document's graph.
func (f File) Graph() types.Snapshot {
	return types.NewSnapshot(f.Nodes, f.Edges)
}
