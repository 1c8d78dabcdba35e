package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tfscope/internal/tf"
)

// Cycle is a closed parent chain among static frames.
type Cycle struct {
	Path    []string `json:"path"` // ["a", "b", "a"]: a's parent is b, b's parent is a
	Message string   `json:"message"`
}

// parentGraph maps child -> [parent]. Each child has exactly one parent.
type parentGraph map[string][]string

// FindCycles reports every parent cycle in records, ordered by the smallest
// frame id on each cycle. Records are expected to be normalised; if a child
// repeats, its last parent wins.
//
// The algorithm:
//  1. Build the child -> parent graph
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with more than one member as a cycle
//
// Self-parenting never reaches this point; the record rules reject it.
func FindCycles(records []tf.Record) []Cycle {
	graph := make(parentGraph, len(records))
	for _, r := range records {
		graph[r.ChildID] = []string{r.ParentID}
	}

	var cycles []Cycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) < 2 {
			continue
		}
		path := cyclePath(scc, graph)
		cycles = append(cycles, Cycle{
			Path:    path,
			Message: fmt.Sprintf("parent cycle: %s", strings.Join(path, " -> ")),
		})
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Path[0] < cycles[j].Path[0] })
	return cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph parentGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
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

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// cyclePath walks parents from the smallest member until it returns.
func cyclePath(scc []string, graph parentGraph) []string {
	start := scc[0]
	for _, n := range scc[1:] {
		if n < start {
			start = n
		}
	}

	path := []string{start}
	for cur := graph[start][0]; ; cur = graph[cur][0] {
		path = append(path, cur)
		if cur == start {
			return path
		}
	}
}
