// Package delay provides the 'delay' node: it waits for a given number of
// milliseconds before passing its input through. Useful for pacing calls to
// rate-limited services.
package delay

import (
	"context"
	"time"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var definition = &node.Definition{
	Type:        "delay",
	Name:        "Delay",
	Description: "Waits 'ms' milliseconds, then passes the 'value' input through.",
	Inputs: []workflow.Parameter{
		{Name: "ms", Type: workflow.TypeNumber},
		{Name: "value", Type: workflow.TypeAny},
	},
	Outputs: []workflow.Parameter{
		{Name: "value", Type: workflow.TypeAny},
	},
	Defaults: map[string]any{"ms": float64(0)},
}

func run(ctx context.Context, nc *node.Context) (map[string]any, error) {
	ms, _ := nc.NumberInput("ms")
	if ms > 0 {
		timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	value, _ := nc.Input("value")
	return map[string]any{"value": value}, nil
}

// Register registers the node type with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&registry.Registered{
		Definition: definition,
		New: func(*workflow.Node) node.Executor {
			return node.Func(definition, run)
		},
	})
}
