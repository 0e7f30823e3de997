// Package dag implements the DAG Builder phase (§4.8): turning each
// model/seed's categorized model dependencies into a graph, validating it
// is acyclic, and exposing a topological build order.
package dag

import (
	"fmt"
	"sort"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// Graph is a vertex per model/seed name with an edge from a dependency to
// the consumer that depends on it (build order flows along edges).
type Graph struct {
	vertices map[string]bool
	edges    map[string][]string // dep -> consumers
}

// Build constructs the graph from a name -> [dep_name, ...] map (one entry
// per model/seed, using only the model/seed-resolved dependencies — §4.8
// external deps are never vertices). A vertex is added for every key;
// edges are added dep -> consumer only when dep is itself a known vertex
// (a key of deps); self-edges are silently dropped (§3 "DAG" invariant).
func Build(deps map[string][]string) *Graph {
	g := &Graph{
		vertices: make(map[string]bool, len(deps)),
		edges:    make(map[string][]string),
	}

	for name := range deps {
		g.vertices[name] = true
	}

	for name, ds := range deps {
		for _, dep := range ds {
			if dep == name {
				continue
			}
			if !g.vertices[dep] {
				continue
			}
			g.edges[dep] = append(g.edges[dep], name)
		}
	}

	return g
}

// TopoOrder returns the graph's topological build order via Kahn's
// algorithm. On a cycle it returns featherflow.ErrCircularDependency
// wrapped with the offending cycle path (e.g. "a -> b -> c -> a").
func (g *Graph) TopoOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.vertices))
	for v := range g.vertices {
		inDegree[v] = 0
	}
	for _, consumers := range g.edges {
		for _, c := range consumers {
			inDegree[c]++
		}
	}

	queue := make([]string, 0)
	for v, d := range inDegree {
		if d == 0 {
			queue = append(queue, v)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		var next []string
		for _, c := range g.edges[cur] {
			inDegree[c]--
			if inDegree[c] == 0 {
				next = append(next, c)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
	}

	if len(order) != len(g.vertices) {
		cycle := g.findCycle()
		return nil, fmt.Errorf("%w: %s", featherflow.ErrCircularDependency, strings.Join(cycle, " -> "))
	}

	return order, nil
}

// findCycle runs a DFS from each vertex looking for a back-edge, returning
// the cycle path it traces (used only once TopoOrder already knows a cycle
// exists, to report which names are involved).
func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.vertices))

	names := make([]string, 0, len(g.vertices))
	for v := range g.vertices {
		names = append(names, v)
	}
	sort.Strings(names)

	var path []string
	var visit func(string) []string
	visit = func(v string) []string {
		color[v] = gray
		path = append(path, v)

		consumers := append([]string(nil), g.edges[v]...)
		sort.Strings(consumers)

		for _, c := range consumers {
			switch color[c] {
			case white:
				if cyc := visit(c); cyc != nil {
					return cyc
				}
			case gray:
				start := 0
				for i, p := range path {
					if p == c {
						start = i
						break
					}
				}
				return append(append([]string(nil), path[start:]...), c)
			}
		}

		path = path[:len(path)-1]
		color[v] = black
		return nil
	}

	for _, v := range names {
		if color[v] == white {
			if cyc := visit(v); cyc != nil {
				return cyc
			}
		}
	}

	return nil
}
