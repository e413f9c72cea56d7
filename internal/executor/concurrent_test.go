package executor_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/executor"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/plan"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/internal/workflow"
)

// diamondGraph builds a graph that fans out from a and joins back at d.
func diamondGraph(typeID string) *workflow.Graph {
	return &workflow.Graph{
		Nodes: []*workflow.Node{
			testutil.ValueNode("a", typeID),
			testutil.ValueNode("b", typeID),
			testutil.ValueNode("c", typeID),
			testutil.ValueNode("d", typeID),
		},
		Connections: []*workflow.Connection{
			testutil.ValueConn("a", "b"),
			testutil.ValueConn("a", "c"),
			testutil.ValueConn("b", "d"),
			testutil.ValueConn("c", "d"),
		},
	}
}

func TestExecuteConcurrent_MatchesSequentialOutputs(t *testing.T) {
	t.Parallel()

	mkExec := func(workers int) ([]executor.Result, error) {
		reg := newRegistry(t, testutil.Stub("append", func(_ context.Context, nc *node.Context) (map[string]any, error) {
			prev, _ := nc.StringInput("value")
			return map[string]any{"value": prev + "x"}, nil
		}))
		g := diamondGraph("append")
		order, err := plan.Order(g)
		require.NoError(t, err)

		exec := executor.New(reg, executor.WithWorkers(workers))
		return exec.Execute(context.Background(), g, order, node.Trigger{
			Values: map[string]any{"value": ""},
		})
	}

	sequential, err := mkExec(1)
	require.NoError(t, err)
	concurrent, err := mkExec(4)
	require.NoError(t, err)

	seqByID := resultByID(sequential)
	conByID := resultByID(concurrent)
	require.Len(t, conByID, len(seqByID))

	for id, seq := range seqByID {
		con := conByID[id]
		assert.Equal(t, seq.Status, con.Status, "node %s", id)
		assert.Equal(t, seq.Outputs, con.Outputs, "node %s", id)
	}
}

func TestExecuteConcurrent_IndependentNodesOverlap(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	reg := newRegistry(t, testutil.Stub("slow", func(ctx context.Context, _ *node.Context) (map[string]any, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
		return map[string]any{"value": true}, nil
	}))

	g := &workflow.Graph{
		Nodes: []*workflow.Node{
			testutil.ValueNode("1", "slow"),
			testutil.ValueNode("2", "slow"),
			testutil.ValueNode("3", "slow"),
		},
	}

	exec := executor.New(reg, executor.WithWorkers(3))
	results, err := exec.Execute(context.Background(), g, []string{"1", "2", "3"}, node.Trigger{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Greater(t, peak.Load(), int32(1), "independent nodes should run in parallel")
}

func TestExecuteConcurrent_DependentsWaitForAllDependencies(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var joinSawBoth bool

	// The join node checks that both wired inputs resolved, which can only
	// happen after both legs recorded results.
	join := &testutil.StubModule{
		Definition: &node.Definition{
			Type: "join",
			Inputs: []workflow.Parameter{
				{Name: "left", Type: workflow.TypeAny},
				{Name: "right", Type: workflow.TypeAny},
			},
			Outputs: []workflow.Parameter{{Name: "value", Type: workflow.TypeAny}},
		},
		Fn: func(_ context.Context, nc *node.Context) (map[string]any, error) {
			_, l := nc.Input("left")
			_, r := nc.Input("right")
			mu.Lock()
			joinSawBoth = l && r
			mu.Unlock()
			return map[string]any{"value": "joined"}, nil
		},
	}
	leg := testutil.Stub("leg", func(ctx context.Context, _ *node.Context) (map[string]any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
		return map[string]any{"value": "leg"}, nil
	})
	reg := newRegistry(t, join, leg)

	g := &workflow.Graph{
		Nodes: []*workflow.Node{
			testutil.ValueNode("l", "leg"),
			testutil.ValueNode("r", "leg"),
			{
				ID:   "j",
				Type: "join",
				Inputs: []workflow.Parameter{
					{Name: "left", Type: workflow.TypeAny},
					{Name: "right", Type: workflow.TypeAny},
				},
				Outputs: []workflow.Parameter{{Name: "value", Type: workflow.TypeAny}},
			},
		},
		Connections: []*workflow.Connection{
			{Source: "l", SourceOutput: "value", Target: "j", TargetInput: "left"},
			{Source: "r", SourceOutput: "value", Target: "j", TargetInput: "right"},
		},
	}

	order, err := plan.Order(g)
	require.NoError(t, err)

	exec := executor.New(reg, executor.WithWorkers(4))
	results, err := exec.Execute(context.Background(), g, order, node.Trigger{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, joinSawBoth, "join node must see both leg outputs resolved")
}

func TestExecuteConcurrent_CancellationReleasesDependents(t *testing.T) {
	t.Parallel()

	// One blocking node with a chain of dependents below it. Canceling the
	// run while the head executes must release the whole chain: the
	// dispatcher has to return, and the never-run nodes have to record
	// canceled-class results instead of staying pending forever.
	started := make(chan struct{}, 1)
	reg := newRegistry(t, testutil.Stub("block", func(ctx context.Context, _ *node.Context) (map[string]any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	g := testutil.LinearGraph("block", "1", "2", "3")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		results []executor.Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		exec := executor.New(reg, executor.WithWorkers(2))
		results, err := exec.Execute(ctx, g, []string{"1", "2", "3"}, node.Trigger{})
		done <- outcome{results: results, err: err}
	}()

	<-started
	cancel()

	select {
	case out := <-done:
		require.NoError(t, out.err)
		byID := resultByID(out.results)
		require.Len(t, byID, 3)

		assert.Equal(t, executor.StatusError, byID["1"].Status)
		assert.Contains(t, byID["1"].Error, "context canceled")

		for _, id := range []string{"2", "3"} {
			assert.Equal(t, executor.StatusError, byID[id].Status, "node %s", id)
			assert.Contains(t, byID[id].Error, "node not executed", "node %s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not return after cancellation")
	}
}

func TestExecuteConcurrent_MissingImplementationHalts(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, testutil.Stub("echo", func(_ context.Context, nc *node.Context) (map[string]any, error) {
		v, _ := nc.Input("value")
		return map[string]any{"value": v}, nil
	}))

	g := &workflow.Graph{
		Nodes: []*workflow.Node{
			testutil.ValueNode("1", "ghost_type"),
			testutil.ValueNode("2", "echo"),
		},
		Connections: []*workflow.Connection{
			testutil.ValueConn("1", "2"),
		},
	}

	exec := executor.New(reg, executor.WithWorkers(4))
	results, err := exec.Execute(context.Background(), g, []string{"1", "2"}, node.Trigger{})
	require.NoError(t, err)

	byID := resultByID(results)
	require.Contains(t, byID, "1")
	assert.Equal(t, executor.StatusError, byID["1"].Status)
	assert.Contains(t, byID["1"].Error, "not found in registry")
	assert.NotContains(t, byID, "2", "dependents of the missing node never dispatch")
}

func TestExecuteConcurrent_ErrorsPropagateAbsentInputs(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t,
		testutil.Stub("fail", func(context.Context, *node.Context) (map[string]any, error) {
			return nil, fmt.Errorf("boom")
		}),
		testutil.Stub("echo", func(_ context.Context, nc *node.Context) (map[string]any, error) {
			_, ok := nc.Input("value")
			return map[string]any{"value": ok}, nil
		}),
	)

	g := &workflow.Graph{
		Nodes: []*workflow.Node{
			testutil.ValueNode("bad", "fail"),
			testutil.ValueNode("after", "echo"),
		},
		Connections: []*workflow.Connection{
			testutil.ValueConn("bad", "after"),
		},
	}

	exec := executor.New(reg, executor.WithWorkers(2))
	results, err := exec.Execute(context.Background(), g, []string{"bad", "after"}, node.Trigger{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := resultByID(results)
	assert.Equal(t, executor.StatusError, byID["bad"].Status)
	require.Equal(t, executor.StatusCompleted, byID["after"].Status)
	assert.Equal(t, false, byID["after"].Outputs["value"], "failed upstream leaves the wired input absent")
}
