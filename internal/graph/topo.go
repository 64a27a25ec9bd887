package graph

import (
	"fmt"

	"github.com/avi3tal/weaveflow/pkg/types"
)

// TopologicalOrder returns node ids so that every edge points forward.
// Ties keep the order nodes appear in. Edges with unknown endpoints are
// ignored.
func TopologicalOrder(nodes []types.Node, edges []types.Edge) ([]string, error) {
	indegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indegree[n.ID] = 0
	}
	out := make(map[string][]string)
	for _, e := range edges {
		if _, ok := indegree[e.Source]; !ok {
			continue
		}
		if _, ok := indegree[e.Target]; !ok {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		indegree[e.Target]++
	}

	order := make([]string, 0, len(nodes))
	done := make(map[string]bool, len(nodes))
	for len(order) < len(nodes) {
		progressed := false
		for _, n := range nodes {
			if done[n.ID] || indegree[n.ID] > 0 {
				continue
			}
			done[n.ID] = true
			order = append(order, n.ID)
			for _, next := range out[n.ID] {
				indegree[next]--
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, n := range nodes {
				if !done[n.ID] {
					stuck = append(stuck, n.ID)
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrCyclicDependency, stuck)
		}
	}
	return order, nil
}

// HasCycle reports whether the graph contains a directed cycle.
func HasCycle(nodes []types.Node, edges []types.Edge) bool {
	_, err := TopologicalOrder(nodes, edges)
	return err != nil
}
