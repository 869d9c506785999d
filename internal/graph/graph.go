// Package graph models the construction order problem between components.
//
// Nodes are dense integer ids handed out by AddNode. An edge a -> b means a
// must be built before b.
package graph

import (
	"fmt"
	"strings"
)

// Edge is a directed dependency -> dependent pair.
type Edge struct {
	From int
	To   int
}

type DependencyGraph struct {
	labels []string
	out    [][]int
	in     [][]int
	seen   map[Edge]struct{}
}

func New() *DependencyGraph {
	return &DependencyGraph{seen: map[Edge]struct{}{}}
}

// AddNode adds a node and returns its id. Labels are only used for errors.
func (g *DependencyGraph) AddNode(label string) int {
	g.labels = append(g.labels, label)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return len(g.labels) - 1
}

// AddEdge records that from must come before to. Duplicate edges are
// collapsed; self edges are kept and reported as a cycle by TopologicalSort.
func (g *DependencyGraph) AddEdge(from, to int) error {
	if from < 0 || from >= len(g.labels) || to < 0 || to >= len(g.labels) {
		return fmt.Errorf("graph: edge %d -> %d references unknown node", from, to)
	}
	e := Edge{From: from, To: to}
	if _, ok := g.seen[e]; ok {
		return nil
	}
	g.seen[e] = struct{}{}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return nil
}

func (g *DependencyGraph) Len() int {
	return len(g.labels)
}

func (g *DependencyGraph) Label(n int) string {
	return g.labels[n]
}

// Edges returns every edge in insertion order per source node.
func (g *DependencyGraph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.seen))
	for from, targets := range g.out {
		for _, to := range targets {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// TopologicalSort orders all nodes so that every edge points forward.
//
// Ready nodes are taken first-in first-out starting from node order. If any
// edge survives, a *CycleError is returned and no order is produced.
func (g *DependencyGraph) TopologicalSort() ([]int, error) {
	indegree := make([]int, len(g.labels))
	for n := range g.labels {
		indegree[n] = len(g.in[n])
	}

	queue := make([]int, 0, len(g.labels))
	for n, d := range indegree {
		if d == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]int, 0, len(g.labels))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, m := range g.out[n] {
			indegree[m]--
			if indegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if len(order) == len(g.labels) {
		return order, nil
	}
	return nil, g.cycleError(indegree)
}

// cycleError walks predecessors from the first unscheduled node. Every node
// left with a positive in-degree has an unscheduled predecessor, so the walk
// must revisit a node, and the revisited stretch is a cycle.
func (g *DependencyGraph) cycleError(indegree []int) *CycleError {
	start := -1
	for n, d := range indegree {
		if d > 0 {
			start = n
			break
		}
	}

	pos := map[int]int{}
	var walk []int
	n := start
	for {
		if at, ok := pos[n]; ok {
			walk = walk[at:]
			break
		}
		pos[n] = len(walk)
		walk = append(walk, n)
		for _, p := range g.in[n] {
			if indegree[p] > 0 {
				n = p
				break
			}
		}
	}

	// walk follows edges backwards; flip it so the path reads in build order.
	cycle := make([]string, 0, len(walk)+1)
	for i := len(walk) - 1; i >= 0; i-- {
		cycle = append(cycle, g.labels[walk[i]])
	}
	cycle = append(cycle, cycle[0])

	return &CycleError{Node: cycle[0], Cycle: cycle}
}

// CycleError reports a dependency cycle. Cycle starts and ends with Node.
type CycleError struct {
	Node  string
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph: cycle detected at %q: %s", e.Node, strings.Join(e.Cycle, " -> "))
}
