// Package markdown provides the 'markdown' node: it renders markdown to
// HTML and sanitizes the result so it is safe to embed in user-facing
// pages.
package markdown

import (
	"context"
	"fmt"

	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var definition = &node.Definition{
	Type:        "markdown",
	Name:        "Markdown",
	Description: "Renders markdown to sanitized HTML.",
	Inputs: []workflow.Parameter{
		{Name: "markdown", Type: workflow.TypeString},
	},
	Outputs: []workflow.Parameter{
		{Name: "html", Type: workflow.TypeString},
	},
}

var policy = bluemonday.UGCPolicy()

func run(_ context.Context, nc *node.Context) (map[string]any, error) {
	source, ok := nc.StringInput("markdown")
	if !ok {
		return nil, fmt.Errorf("markdown: required input 'markdown' is missing")
	}

	rendered := markdown.ToHTML([]byte(source), nil, nil)
	sanitized := policy.SanitizeBytes(rendered)

	return map[string]any{"html": string(sanitized)}, nil
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
