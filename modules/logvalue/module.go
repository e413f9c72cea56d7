// Package logvalue provides the 'log_value' node: a sink that logs its
// resolved inputs, mainly for debugging workflows from the CLI.
package logvalue

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var definition = &node.Definition{
	Type:        "log_value",
	Name:        "Log Value",
	Description: "Logs every resolved input value and passes the 'value' input through.",
	Inputs: []workflow.Parameter{
		{Name: "value", Type: workflow.TypeAny},
	},
	Outputs: []workflow.Parameter{
		{Name: "value", Type: workflow.TypeAny},
	},
}

func run(ctx context.Context, nc *node.Context) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("node", "log_value")

	// Sort keys for consistent output.
	keys := make([]string, 0, len(nc.Inputs))
	for k := range nc.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		logger.Info("input", "name", k, "value", fmt.Sprintf("%v", nc.Inputs[k]))
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
