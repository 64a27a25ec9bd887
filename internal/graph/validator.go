package graph

import (
	"github.com/avi3tal/weaveflow/pkg/types"
)

const (
	MsgCircular      = "Circular connections are not allowed"
	MsgWrongInput    = "Wrong input type"
	MsgMissingInput  = "Required input is missing."
	MsgFailedDefault = "Failed to run node"
)

// ConnectionResult is the verdict on a proposed edge. It is advisory and
// never an error.
type ConnectionResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

func valid() ConnectionResult { return ConnectionResult{IsValid: true} }

func invalid(msg string) ConnectionResult { return ConnectionResult{Message: msg} }

// ValidateConnection decides whether c may be added to the graph formed by
// nodes and edges. Checks run in order and stop at the first failure:
// self-loop, missing endpoint, cycle, output-handle target, type mismatch
// and undeclared image input. It does not mutate anything and is safe to
// call for previews.
func ValidateConnection(nodes []types.Node, edges []types.Edge, c types.Connection) ConnectionResult {
	if c.Source == c.Target {
		return invalid(MsgCircular)
	}

	var source, target *types.Node
	for i := range nodes {
		switch nodes[i].ID {
		case c.Source:
			source = &nodes[i]
		case c.Target:
			target = &nodes[i]
		}
	}
	if source == nil || target == nil {
		return ConnectionResult{}
	}

	if reaches(edges, c.Target, c.Source) {
		return invalid(MsgCircular)
	}

	if types.IsOutputHandle(c.TargetHandle) {
		return invalid(MsgWrongInput)
	}

	sourceIsImage := source.Kind.ProducesImages()
	switch {
	case types.IsImageHandle(c.TargetHandle):
		if !sourceIsImage {
			return invalid(MsgWrongInput)
		}
		idx, ok := types.ImageInIndex(c.TargetHandle)
		if !ok || idx >= target.ImageInputCount() {
			return invalid(MsgWrongInput)
		}
	case types.IsTextHandle(c.TargetHandle):
		if sourceIsImage {
			return invalid(MsgWrongInput)
		}
	default:
		return invalid(MsgWrongInput)
	}

	return valid()
}

// reaches reports whether to is reachable from from by following edges.
func reaches(edges []types.Edge, from, to string) bool {
	out := make(map[string][]string)
	for _, e := range edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}
	visited := make(map[string]bool)
	return dfs(out, from, to, visited)
}

func dfs(out map[string][]string, node, goal string, visited map[string]bool) bool {
	if node == goal {
		return true
	}
	visited[node] = true
	for _, next := range out[node] {
		if !visited[next] && dfs(out, next, goal, visited) {
			return true
		}
	}
	return false
}
