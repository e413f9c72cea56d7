package executor

import (
	"sync"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/workflow"
)

// run holds the per-execution state: the graph being dispatched, the
// trigger values, and the append-only results table. Each node id is
// written exactly once, by exactly one task, so concurrent dispatch needs
// no coordination beyond the table mutex.
type run struct {
	graph   *workflow.Graph
	trigger node.Trigger
	runID   string

	mu      sync.Mutex
	results map[string]*Result
}

func (r *run) set(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.NodeID] = res
}

func (r *run) get(id string) (*Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	return res, ok
}

// resolveInputs produces the input value map for one node. For every
// declared input parameter, in order of precedence:
//
//  1. an incoming connection's value, read from the already-recorded result
//     of the source node (guaranteed dispatched first by the topological
//     order invariant);
//  2. the node declaration's own default;
//  3. the node type's definition default;
//  4. the trigger values, for entry parameters fed by the external request.
//
// An input that resolves nowhere stays absent from the map: upstream
// failures do not block dispatch, the node's own input validation decides
// whether absence is fatal.
func resolveInputs(r *run, n *workflow.Node, def *node.Definition) map[string]any {
	inputs := make(map[string]any, len(n.Inputs))
	incoming := r.graph.Incoming(n.ID)

	for _, p := range n.Inputs {
		var conn *workflow.Connection
		for _, c := range incoming {
			if c.TargetInput == p.Name {
				conn = c
				break
			}
		}
		if conn != nil {
			if src, ok := r.get(conn.Source); ok && src.Status == StatusCompleted {
				if v, ok := src.Outputs[conn.SourceOutput]; ok {
					inputs[p.Name] = v
				}
			}
			// A wired input never falls back to defaults or trigger data;
			// if the upstream failed, the value is simply absent.
			continue
		}
		if v, ok := n.Defaults[p.Name]; ok {
			inputs[p.Name] = v
			continue
		}
		if def != nil {
			if v, ok := def.Defaults[p.Name]; ok {
				inputs[p.Name] = v
				continue
			}
		}
		if v, ok := r.trigger.Values[p.Name]; ok {
			inputs[p.Name] = v
		}
	}
	return inputs
}
