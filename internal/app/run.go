package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/executor"
	"github.com/vk/flowgridgo/internal/hclfile"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/plan"
	"github.com/vk/flowgridgo/internal/runstore"
	"github.com/vk/flowgridgo/internal/validate"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Run executes the main application logic: it loads the workflow file,
// validates the graph, plans an execution order, dispatches it, and records
// the run in the history store.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	wf, err := hclfile.LoadFile(a.config.WorkflowPath)
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}
	a.logger.Debug("Workflow loaded.", "name", wf.Name,
		"nodes", len(wf.Graph.Nodes), "connections", len(wf.Graph.Connections))

	if errs := validate.Validate(wf.Graph); len(errs) > 0 {
		for _, e := range errs {
			a.logger.Error("Workflow validation failed.", "kind", e.Kind, "detail", e.Error())
		}
		return fmt.Errorf("workflow %q is invalid: %d validation error(s)", wf.Name, len(errs))
	}
	a.logger.Debug("Workflow validation passed.")

	order, err := plan.Order(wf.Graph)
	if err != nil {
		return fmt.Errorf("failed to plan execution order: %w", err)
	}
	a.logger.Debug("Execution order planned.", "order", order)

	if len(order) == 0 {
		a.logger.Warn("No nodes found in workflow, execution not required.")
		return nil
	}

	trigger := node.Trigger{
		Kind:   wf.Trigger,
		Values: a.config.TriggerData,
	}
	if a.config.TriggerKind != "" {
		trigger.Kind = workflow.TriggerKind(a.config.TriggerKind)
	}

	exec := executor.New(a.registry,
		executor.WithWorkers(a.config.Workers),
		executor.WithContinueOnError(!a.config.HaltOnError),
		executor.WithIdentity(wf.Name, ""),
	)

	a.logger.Info("🚀 Starting execution.", "workflow", wf.Name, "workers", a.config.Workers)
	startedAt := time.Now()
	results, err := exec.Execute(ctx, wf.Graph, order, trigger)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "dispatched", len(results))

	run := &runstore.Run{
		ID:        uuid.NewString(),
		Workflow:  wf.Name,
		StartedAt: startedAt,
		Results:   results,
	}
	if err := a.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return a.summarize(wf.Name, results)
}

// summarize prints the per-node outcome table and reports failure when any
// node ended in error.
func (a *App) summarize(name string, results []executor.Result) error {
	failed := 0
	for _, r := range results {
		if r.Status == executor.StatusError {
			failed++
			fmt.Fprintf(a.outW, "  ✗ %s (%s): %s\n", r.NodeID, r.Duration.Round(time.Millisecond), r.Error)
			continue
		}
		fmt.Fprintf(a.outW, "  ✓ %s (%s)\n", r.NodeID, r.Duration.Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("workflow %q finished with %d failed node(s)", name, failed)
	}
	fmt.Fprintf(a.outW, "Workflow %q completed: %d node(s).\n", name, len(results))
	return nil
}
