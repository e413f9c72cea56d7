// Package executor dispatches a planned workflow: it walks the execution
// order, resolves each node's inputs from upstream outputs or trigger data,
// invokes the node's execution contract with isolated failure handling, and
// collects per-node results.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Status is the terminal disposition of one node dispatch.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Result records the outcome of dispatching one node. Created fresh for
// every dispatch attempt; the engine itself does not persist it.
type Result struct {
	NodeID   string         `json:"node_id"`
	Status   Status         `json:"status"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Executor runs planned workflow graphs against a node registry.
type Executor struct {
	registry *registry.Registry

	// workers selects the dispatch mode: 1 dispatches strictly in plan
	// order, >1 launches each node as soon as its dependencies complete.
	workers int

	// continueOnError keeps dispatching downstream nodes after a node
	// reports an error, passing absent values for unresolved inputs.
	// Independent branches stay runnable; each node's own input validation
	// decides whether the absence is fatal.
	continueOnError bool

	// defaultTimeout bounds node invocations whose definition declares no
	// timeout of its own. Zero means unbounded.
	defaultTimeout time.Duration

	secrets        node.SecretSource
	workflowID     string
	organizationID string
	progress       func(nodeID string, fraction float64, message string)
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the size of the worker pool. n <= 1 selects strict
// sequential dispatch in plan order.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 1 {
			e.workers = n
		}
	}
}

// WithContinueOnError toggles best-effort continuation after a node error.
// It defaults to on; disabling it short-circuits the remainder of the plan
// on the first node error.
func WithContinueOnError(on bool) Option {
	return func(e *Executor) { e.continueOnError = on }
}

// WithDefaultTimeout sets the fallback per-node timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) { e.defaultTimeout = d }
}

// WithSecrets injects the credential-resolution capability forwarded to
// node implementations.
func WithSecrets(s node.SecretSource) Option {
	return func(e *Executor) { e.secrets = s }
}

// WithIdentity attaches the workflow and organization identifiers carried
// in every node's execution context.
func WithIdentity(workflowID, organizationID string) Option {
	return func(e *Executor) {
		e.workflowID = workflowID
		e.organizationID = organizationID
	}
}

// WithProgress attaches a progress sink receiving per-node progress
// reports.
func WithProgress(fn func(nodeID string, fraction float64, message string)) Option {
	return func(e *Executor) { e.progress = fn }
}

// New creates an Executor bound to a registry.
func New(reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry:        reg,
		workers:         1,
		continueOnError: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute dispatches every node id in order and returns the per-node
// results in plan order. The graph must have passed validation and order
// must come from the planner; an order naming an undeclared node is a
// caller error and fails loudly.
//
// A node type missing from the registry records an error result and halts
// the remainder of the plan. A node reporting an execution error does not:
// the remaining nodes still run per the continuation policy, unless
// WithContinueOnError(false) was set.
//
// Canceling ctx aborts in-flight nodes; every node that never got to run
// records a canceled-class error result, while completed results stand.
func (e *Executor) Execute(ctx context.Context, g *workflow.Graph, order []string, trigger node.Trigger) ([]Result, error) {
	for _, id := range order {
		if _, ok := g.Node(id); !ok {
			return nil, fmt.Errorf("executor: order references undeclared node %q", id)
		}
	}

	run := &run{
		graph:   g,
		trigger: trigger,
		runID:   uuid.NewString(),
		results: make(map[string]*Result, len(order)),
	}

	logger := ctxlog.FromContext(ctx).With("runID", run.runID, "workflowID", e.workflowID)
	logger.Debug("Starting dispatch.", "nodes", len(order), "workers", e.workers)

	if e.workers > 1 {
		e.runConcurrent(ctx, run, order)
	} else {
		e.runSequential(ctx, run, order)
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		if r, ok := run.results[id]; ok {
			results = append(results, *r)
		}
	}
	logger.Debug("Dispatch finished.", "dispatched", len(results))
	return results, nil
}

// canceledResult is recorded for a node the dispatcher never executed
// because the run context ended first.
func canceledResult(nodeID string, cause error) *Result {
	return &Result{
		NodeID: nodeID,
		Status: StatusError,
		Error:  fmt.Sprintf("node not executed: %v", cause),
	}
}

// runSequential dispatches nodes one at a time, strictly in plan order.
func (e *Executor) runSequential(ctx context.Context, run *run, order []string) {
	logger := ctxlog.FromContext(ctx)
	for i, id := range order {
		if err := ctx.Err(); err != nil {
			logger.Warn("Dispatch canceled, remaining nodes not executed.", "nodeID", id)
			for _, rest := range order[i:] {
				run.set(canceledResult(rest, err))
			}
			return
		}

		n, _ := run.graph.Node(id)
		exec, ok := e.registry.NewExecutor(n)
		if !ok {
			logger.Error("No implementation registered for node type.", "nodeID", id, "type", n.Type)
			run.set(&Result{
				NodeID: id,
				Status: StatusError,
				Error:  fmt.Sprintf("node type %q not found in registry", n.Type),
			})
			// A missing implementation aborts the whole run.
			return
		}

		res := e.invoke(ctx, run, n, exec)
		run.set(res)

		if res.Status == StatusError && !e.continueOnError {
			logger.Warn("Halting plan after node error.", "nodeID", id)
			return
		}
	}
}
