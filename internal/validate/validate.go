package validate

import (
	"github.com/vk/flowgridgo/internal/workflow"
)

// Validate runs every check against the graph and returns the combined
// defect list. An empty result means the graph is sound. The checks are
// independent: a cycle does not suppress type errors and vice versa.
func Validate(g *workflow.Graph) []Error {
	var errs []Error
	errs = append(errs, checkCycles(g)...)
	errs = append(errs, checkConnections(g)...)
	errs = append(errs, checkDuplicates(g)...)
	return errs
}

// HasCycle reports whether the graph contains a directed cycle. The planner
// uses it as a precondition guard.
func HasCycle(g *workflow.Graph) bool {
	return len(checkCycles(g)) > 0
}

// checkCycles runs a depth-first traversal from every unvisited node,
// maintaining the set of nodes on the current recursion stack. Reaching a
// node already on the stack means a back-edge, and therefore a cycle.
// Self-loops are cycles of length one. O(V+E).
func checkCycles(g *workflow.Graph) []Error {
	// Adjacency over declared nodes only; edges to unknown ids are the
	// structural check's concern.
	adjacency := make(map[string][]string, len(g.Nodes))
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, c := range g.Connections {
		if ids[c.Source] && ids[c.Target] {
			adjacency[c.Source] = append(adjacency[c.Source], c.Target)
		}
	}

	visited := make(map[string]bool, len(g.Nodes))
	onStack := make(map[string]bool)
	var errs []Error

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = true
		for _, next := range adjacency[id] {
			if onStack[next] {
				errs = append(errs, Error{Kind: CycleDetected, NodeID: next})
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}
		delete(onStack, id)
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] {
			visit(n.ID)
		}
	}
	return errs
}

// checkConnections resolves both endpoints and both named parameters of
// every connection and compares the parameter types. Every broken edge is
// reported; one defect per edge.
func checkConnections(g *workflow.Graph) []Error {
	var errs []Error
	for _, c := range g.Connections {
		source, ok := g.Node(c.Source)
		if !ok {
			errs = append(errs, Error{
				Kind:       InvalidConnection,
				Connection: c,
				Detail:     "source node " + c.Source + " does not exist",
			})
			continue
		}
		target, ok := g.Node(c.Target)
		if !ok {
			errs = append(errs, Error{
				Kind:       InvalidConnection,
				Connection: c,
				Detail:     "target node " + c.Target + " does not exist",
			})
			continue
		}
		out, ok := source.Output(c.SourceOutput)
		if !ok {
			errs = append(errs, Error{
				Kind:       InvalidConnection,
				Connection: c,
				Detail:     "node " + c.Source + " has no output " + c.SourceOutput,
			})
			continue
		}
		in, ok := target.Input(c.TargetInput)
		if !ok {
			errs = append(errs, Error{
				Kind:       InvalidConnection,
				Connection: c,
				Detail:     "node " + c.Target + " has no input " + c.TargetInput,
			})
			continue
		}
		if !out.Type.Matches(in.Type) {
			errs = append(errs, Error{
				Kind:       TypeMismatch,
				Connection: c,
				SourceType: out.Type,
				TargetType: in.Type,
			})
		}
	}
	return errs
}

// checkDuplicates reports one error per repeat occurrence of a structurally
// identical connection: three identical edges yield two errors.
func checkDuplicates(g *workflow.Graph) []Error {
	seen := make(map[string]bool, len(g.Connections))
	var errs []Error
	for _, c := range g.Connections {
		key := c.Key()
		if seen[key] {
			errs = append(errs, Error{Kind: DuplicateConnection, Connection: c})
			continue
		}
		seen[key] = true
	}
	return errs
}
