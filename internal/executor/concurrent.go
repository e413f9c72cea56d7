package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/ctxlog"
)

// Task states for concurrent dispatch.
const (
	taskPending int32 = iota
	taskRunning
	taskDone
	taskSkipped
)

// task wraps one node id with the scheduling state the worker pool needs:
// an unmet-dependency counter, the dependents to unlock on completion, and
// a guard ensuring the node is accounted exactly once.
type task struct {
	id         string
	dependents []*task
	depCount   atomic.Int32
	state      atomic.Int32
	once       sync.Once
}

func (t *task) finish(wg *sync.WaitGroup) {
	t.once.Do(wg.Done)
}

// runConcurrent dispatches each node as soon as all of its dependencies
// have completed, using a worker pool fed by a ready channel. It preserves
// the sequential mode's semantics: at-most-once dispatch, dependencies
// complete (successfully or with error) before a node runs, best-effort
// continuation after node errors, and a full halt on a missing
// implementation.
func (e *Executor) runConcurrent(ctx context.Context, r *run, order []string) {
	logger := ctxlog.FromContext(ctx)

	tasks := make(map[string]*task, len(order))
	for _, id := range order {
		tasks[id] = &task{id: id}
	}
	for _, id := range order {
		t := tasks[id]
		deps := make(map[string]bool)
		for _, c := range r.graph.Incoming(id) {
			if dep, ok := tasks[c.Source]; ok && !deps[c.Source] {
				deps[c.Source] = true
				dep.dependents = append(dep.dependents, t)
			}
		}
		t.depCount.Store(int32(len(deps)))
	}

	readyChan := make(chan *task, len(order))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(len(order))

	// haltWith stops scheduling. Every still-pending task is skipped and
	// accounted so the wait group always drains; mark optionally records a
	// result for each skipped task before it is released.
	var halted atomic.Bool
	haltWith := func(mark func(*task)) {
		if halted.CompareAndSwap(false, true) {
			cancel()
			for _, t := range tasks {
				if t.state.CompareAndSwap(taskPending, taskSkipped) {
					if mark != nil {
						mark(t)
					}
					t.finish(&wg)
				}
			}
		}
	}

	// halt drops pending tasks without a result, matching the sequential
	// mode where nodes after the halt point never execute.
	halt := func() { haltWith(nil) }

	// haltCanceled records a canceled-class error result for every node
	// that never got to run; completed results stand.
	haltCanceled := func(cause error) {
		haltWith(func(t *task) {
			r.set(canceledResult(t.id, cause))
		})
	}

	rootCount := 0
	for _, id := range order {
		if t := tasks[id]; t.depCount.Load() == 0 {
			readyChan <- t
			rootCount++
		}
	}
	logger.Debug("Concurrent dispatch starting.", "roots", rootCount, "workers", e.workers)

	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, r, readyChan, i, &wg, halt, haltCanceled)
	}

	wg.Wait()
	close(readyChan)
}

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, r *run, readyChan chan *task, workerID int, wg *sync.WaitGroup, halt func(), haltCanceled func(error)) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	for t := range readyChan {
		if !t.state.CompareAndSwap(taskPending, taskRunning) {
			// Already skipped by a halt.
			continue
		}
		if err := ctx.Err(); err != nil {
			// The run was canceled before this task could execute. Record
			// it, then release every other pending task the same way;
			// leaving dependents pending would strand the wait group.
			logger.Warn("Dispatch canceled, node not executed.", "nodeID", t.id)
			r.set(canceledResult(t.id, err))
			t.state.Store(taskSkipped)
			t.finish(wg)
			haltCanceled(err)
			continue
		}

		n, _ := r.graph.Node(t.id)
		exec, ok := e.registry.NewExecutor(n)
		if !ok {
			logger.Error("No implementation registered for node type.", "nodeID", t.id, "type", n.Type)
			r.set(&Result{
				NodeID: t.id,
				Status: StatusError,
				Error:  fmt.Sprintf("node type %q not found in registry", n.Type),
			})
			t.state.Store(taskDone)
			t.finish(wg)
			halt()
			continue
		}

		res := e.invoke(ctx, r, n, exec)
		r.set(res)
		t.state.Store(taskDone)
		t.finish(wg)

		if res.Status == StatusError && !e.continueOnError {
			halt()
			continue
		}

		// Completed and errored nodes both unlock their dependents: the
		// continuation policy runs downstream nodes with absent inputs.
		for _, dependent := range t.dependents {
			if dependent.depCount.Add(-1) == 0 {
				logger.Debug("Unlocking dependent node.", "dependentID", dependent.id)
				readyChan <- dependent
			}
		}
	}
	logger.Debug("Worker finished.")
}
