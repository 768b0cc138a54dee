package composition

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/groupwire/internal/ir"
)

// InstantiationOrder returns every registered group ordered so that each
// exporter precedes the importers it supplies. Groups with no ordering
// constraint between them appear in id order.
//
// Fails with COMPOSITION_CYCLE when the connection graph has a cycle; the
// error names one cycle path.
func (l *Layer) InstantiationOrder() ([]ir.GroupCompositionID, error) {
	deps := l.dependencyGraph()

	// Report each SCC with size > 1 or a self-loop as a cycle.
	for _, scc := range tarjanSCC(deps) {
		if len(scc) > 1 || (len(scc) == 1 && slices.Contains(deps[scc[0]], scc[0])) {
			path := reconstructCyclePath(scc, deps)
			names := make([]string, len(path))
			for i, id := range path {
				names[i] = id.String()
			}
			return nil, &Error{
				Code:    CodeCompositionCycle,
				Message: fmt.Sprintf("composition cycle: %s", strings.Join(names, " -> ")),
				Group:   path[0],
				Cycle:   path,
			}
		}
	}

	// Kahn's algorithm, always taking the smallest ready id.
	indegree := make(map[ir.GroupCompositionID]int, len(deps))
	for id := range deps {
		indegree[id] += 0
		for _, next := range deps[id] {
			indegree[next]++
		}
	}
	var ready []ir.GroupCompositionID
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	slices.SortFunc(ready, ir.GroupCompositionID.Compare)

	order := make([]ir.GroupCompositionID, 0, len(deps))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, next := range deps[id] {
			indegree[next]--
			if indegree[next] == 0 {
				i, _ := slices.BinarySearchFunc(ready, next, ir.GroupCompositionID.Compare)
				ready = slices.Insert(ready, i, next)
			}
		}
	}
	return order, nil
}

// dependencyGraph maps each registered group to the importers it supplies,
// deduplicated and sorted so traversal is deterministic.
func (l *Layer) dependencyGraph() map[ir.GroupCompositionID][]ir.GroupCompositionID {
	deps := make(map[ir.GroupCompositionID][]ir.GroupCompositionID, len(l.groups))
	for id := range l.groups {
		deps[id] = l.graph.dependents(id)
	}
	return deps
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph map[ir.GroupCompositionID][]ir.GroupCompositionID) [][]ir.GroupCompositionID {
	var (
		index   = 0
		stack   []ir.GroupCompositionID
		indices = make(map[ir.GroupCompositionID]int)
		lowlink = make(map[ir.GroupCompositionID]int)
		onStack = make(map[ir.GroupCompositionID]bool)
		sccs    [][]ir.GroupCompositionID
	)

	var strongConnect func(ir.GroupCompositionID)
	strongConnect = func(v ir.GroupCompositionID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []ir.GroupCompositionID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.SortFunc(scc, ir.GroupCompositionID.Compare)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range slices.SortedFunc(maps.Keys(graph), ir.GroupCompositionID.Compare) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath finds a shortest cycle through the smallest member
// of an SCC with a breadth-first search over edges inside the SCC.
// The returned path starts and ends with that member.
func reconstructCyclePath(scc []ir.GroupCompositionID, graph map[ir.GroupCompositionID][]ir.GroupCompositionID) []ir.GroupCompositionID {
	members := make(map[ir.GroupCompositionID]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}

	start := scc[0]
	parent := make(map[ir.GroupCompositionID]ir.GroupCompositionID)
	seen := map[ir.GroupCompositionID]bool{start: true}
	queue := []ir.GroupCompositionID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range graph[current] {
			if !members[next] {
				continue
			}
			if next == start {
				path := []ir.GroupCompositionID{start}
				for node := current; node != start; node = parent[node] {
					path = append(path, node)
				}
				path = append(path, start)
				// path is start, reversed walk, start
				slices.Reverse(path[1 : len(path)-1])
				return path
			}
			if !seen[next] {
				seen[next] = true
				parent[next] = current
				queue = append(queue, next)
			}
		}
	}
	return []ir.GroupCompositionID{start}
}
