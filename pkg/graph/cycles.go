package graph

import (
	"sort"

	gr "github.com/dominikbraun/graph"
)

// DFS colors
const (
	white = iota // unvisited
	gray         // on the current traversal path
	black        // fully explored
)

// frame is an explicit DFS stack entry. The traversal is iterative so
// deep role chains cannot exhaust the call stack.
type frame struct {
	node string
	next int
}

// findCycles detects cycles with a three-color depth-first traversal
// from every unvisited node, over the backing store's adjacency map.
// Each detected cycle is returned as the node sequence along the
// traversal path, closed by repeating the first node. Self-loops
// appear as two-element sequences.
func findCycles(nodes []Node, adjMap map[string]map[string]gr.Edge[string]) [][]string {
	adj := make(map[string][]string, len(adjMap))
	for source, targets := range adjMap {
		succ := make([]string, 0, len(targets))
		for target := range targets {
			succ = append(succ, target)
		}
		sort.Strings(succ)
		adj[source] = succ
	}

	colors := make(map[string]int, len(nodes))
	depth := make(map[string]int, len(nodes))
	var cycles [][]string

	for _, start := range nodes {
		if colors[start.ID] != white {
			continue
		}

		stack := []frame{{node: start.ID}}
		colors[start.ID] = gray
		depth[start.ID] = 0

		for len(stack) > 0 {
			top := len(stack) - 1
			succ := adj[stack[top].node]

			if stack[top].next >= len(succ) {
				colors[stack[top].node] = black
				delete(depth, stack[top].node)
				stack = stack[:top]
				continue
			}

			next := succ[stack[top].next]
			stack[top].next++

			switch colors[next] {
			case white:
				colors[next] = gray
				depth[next] = len(stack)
				stack = append(stack, frame{node: next})
			case gray:
				cycle := make([]string, 0, len(stack)-depth[next]+1)
				for i := depth[next]; i < len(stack); i++ {
					cycle = append(cycle, stack[i].node)
				}
				cycle = append(cycle, next)
				cycles = append(cycles, cycle)
			}
		}
	}

	return cycles
}
