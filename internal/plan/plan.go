// Package plan derives a deterministic execution order from a validated
// workflow graph.
package plan

import (
	"errors"

	"github.com/vk/flowgridgo/internal/validate"
	"github.com/vk/flowgridgo/internal/workflow"
)

// ErrCyclicGraph is returned when Order is called on a graph containing a
// directed cycle. Callers are expected to validate first; the guard exists
// so that a violated precondition fails loudly instead of recursing forever.
var ErrCyclicGraph = errors.New("plan: graph contains a cycle")

// Order returns a topological order of the graph's node ids: every node
// appears after all nodes whose outputs it consumes.
//
// The traversal is reverse-postorder depth-first, rooted at nodes with no
// incoming connection in declaration order, followed by a sweep over any
// remaining nodes (isolated components) in declaration order. The result is
// fully determined by the graph's declaration order, so identical inputs
// always produce identical plans.
func Order(g *workflow.Graph) ([]string, error) {
	if validate.HasCycle(g) {
		return nil, ErrCyclicGraph
	}

	incoming := make(map[string]int, len(g.Nodes))
	for _, c := range g.Connections {
		incoming[c.Target]++
	}

	visited := make(map[string]bool, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		// Dependencies first: sources of incoming edges are appended before
		// the node itself.
		for _, c := range g.Incoming(id) {
			if _, ok := g.Node(c.Source); ok {
				visit(c.Source)
			}
		}
		order = append(order, id)
	}

	for _, n := range g.Nodes {
		if incoming[n.ID] == 0 {
			visit(n.ID)
		}
	}
	for _, n := range g.Nodes {
		visit(n.ID)
	}

	return order, nil
}
