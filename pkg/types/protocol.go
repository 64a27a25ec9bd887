package types

// NodeResponse encapsulates the outcome of a single node run
type NodeResponse struct {
	NodeID string              `json:"nodeId"`
	Status NodeExecutionStatus `json:"status"`
	Node   Node                `json:"node"`
}

// ResponseFor builds a NodeResponse from the node's committed state.
func ResponseFor(n Node) NodeResponse {
	return NodeResponse{NodeID: n.ID, Status: n.Base().Status(), Node: n}
}
