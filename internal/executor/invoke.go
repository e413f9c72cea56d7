package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/workflow"
)

// invoke runs one node through its execution contract and converts every
// outcome, including timeouts and escaped panics, into a Result. The
// dispatcher's control flow never depends on unstructured signals escaping
// a node.
func (e *Executor) invoke(ctx context.Context, r *run, n *workflow.Node, exec node.Executor) *Result {
	logger := ctxlog.FromContext(ctx).With("nodeID", n.ID, "type", n.Type)

	def := exec.Definition()
	timeout := def.Timeout
	if timeout == 0 {
		timeout = e.defaultTimeout
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	nc := &node.Context{
		Inputs:         resolveInputs(r, n, def),
		Trigger:        r.trigger,
		WorkflowID:     e.workflowID,
		OrganizationID: e.organizationID,
		RunID:          r.runID,
		Secrets:        e.secrets,
	}
	if e.progress != nil {
		nodeID := n.ID
		nc.Progress = func(fraction float64, message string) {
			e.progress(nodeID, fraction, message)
		}
	}

	logger.Info("▶️ Dispatching node")
	start := time.Now()
	outputs, err := call(runCtx, exec, nc)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("node %q timed out after %s", n.ID, timeout)
		}
		logger.Error("Node execution failed.", "error", err, "duration", elapsed)
		return &Result{NodeID: n.ID, Status: StatusError, Error: err.Error(), Duration: elapsed}
	}

	logger.Info("✅ Node completed", "duration", elapsed)
	return &Result{NodeID: n.ID, Status: StatusCompleted, Outputs: outputs, Duration: elapsed}
}

type callOutcome struct {
	outputs map[string]any
	err     error
}

// call invokes Execute in its own goroutine so the dispatcher waits no
// longer than the invocation context allows, even when an implementation
// ignores cancellation. A node that keeps running past its deadline is
// abandoned; its eventual return is discarded.
func call(ctx context.Context, exec node.Executor, nc *node.Context) (map[string]any, error) {
	done := make(chan callOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- callOutcome{err: fmt.Errorf("node panicked: %v", rec)}
			}
		}()
		outputs, err := exec.Execute(ctx, nc)
		done <- callOutcome{outputs: outputs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.outputs, out.err
	}
}
