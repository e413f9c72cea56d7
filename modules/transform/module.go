// Package transform provides the 'transform' node: simple JSON object
// reshaping (pick a subset of fields, rename keys) between two nodes.
package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var definition = &node.Definition{
	Type:        "transform",
	Name:        "Transform",
	Description: "Picks and renames fields of a JSON object. 'fields' is a comma-separated list of 'key' or 'key:new_name' entries; empty keeps the object unchanged.",
	Inputs: []workflow.Parameter{
		{Name: "value", Type: workflow.TypeJSON},
		{Name: "fields", Type: workflow.TypeString},
	},
	Outputs: []workflow.Parameter{
		{Name: "value", Type: workflow.TypeJSON},
	},
}

func run(_ context.Context, nc *node.Context) (map[string]any, error) {
	raw, ok := nc.Input("value")
	if !ok {
		return nil, fmt.Errorf("transform: required input 'value' is missing")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("transform: input 'value' must be a JSON object, got %T", raw)
	}

	spec, _ := nc.StringInput("fields")
	if strings.TrimSpace(spec) == "" {
		return map[string]any{"value": obj}, nil
	}

	out := make(map[string]any)
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, rename := field, field
		if before, after, found := strings.Cut(field, ":"); found {
			key, rename = strings.TrimSpace(before), strings.TrimSpace(after)
		}
		if v, ok := obj[key]; ok {
			out[rename] = v
		}
	}
	return map[string]any{"value": out}, nil
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
