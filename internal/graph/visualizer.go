package graph

import (
	"fmt"
	"io"

	"github.com/avi3tal/weaveflow/pkg/types"
)

// Info represents the graph structure for visualization
type Info struct {
	Nodes []NodeInfo
	Edges []EdgeInfo
}

type NodeInfo struct {
	ID     string
	Kind   types.NodeKind
	Label  string
	Status types.NodeExecutionStatus
}

type EdgeInfo struct {
	From       string
	FromHandle string
	To         string
	ToHandle   string
	Type       string // "image" or "text"
}

func GetGraphInfo(g types.Snapshot) *Info {
	info := &Info{
		Nodes: make([]NodeInfo, 0, len(g.Nodes)),
		Edges: make([]EdgeInfo, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		b := n.Base()
		info.Nodes = append(info.Nodes, NodeInfo{ID: n.ID, Kind: n.Kind, Label: b.Label, Status: b.Status()})
	}
	for _, e := range g.Edges {
		info.Edges = append(info.Edges, EdgeInfo{
			From:       e.Source,
			FromHandle: e.SourceHandle,
			To:         e.Target,
			ToHandle:   e.TargetHandle,
			Type:       e.Style.Tag(),
		})
	}
	return info
}

func PrintGraph(w io.Writer, g types.Snapshot) {
	info := GetGraphInfo(g)

	fmt.Fprintln(w, "Graph Structure:")
	fmt.Fprintln(w, "\nNodes:")
	for _, n := range info.Nodes {
		fmt.Fprintf(w, "  - %s [%s] %q (%s)\n", n.ID, n.Kind, n.Label, n.Status)
	}

	fmt.Fprintln(w, "\nEdges:")
	for _, e := range info.Edges {
		switch e.Type {
		case "image":
			fmt.Fprintf(w, "  %s.%s ==image==> %s.%s\n", e.From, e.FromHandle, e.To, e.ToHandle)
		default:
			fmt.Fprintf(w, "  %s.%s --text--> %s.%s\n", e.From, e.FromHandle, e.To, e.ToHandle)
		}
	}
}
