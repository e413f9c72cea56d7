// Package htmlextract provides the 'html_extract' node: CSS-selector based
// extraction of text from an HTML document, typically fed by an
// http_request node.
package htmlextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var definition = &node.Definition{
	Type:        "html_extract",
	Name:        "HTML Extract",
	Description: "Selects elements from an HTML document with a CSS selector and returns their text.",
	Inputs: []workflow.Parameter{
		{Name: "html", Type: workflow.TypeString},
		{Name: "selector", Type: workflow.TypeString},
	},
	Outputs: []workflow.Parameter{
		{Name: "text", Type: workflow.TypeString},
		{Name: "matches", Type: workflow.TypeNumber},
	},
}

func run(_ context.Context, nc *node.Context) (map[string]any, error) {
	html, ok := nc.StringInput("html")
	if !ok {
		return nil, fmt.Errorf("html_extract: required input 'html' is missing")
	}
	selector, ok := nc.StringInput("selector")
	if !ok || selector == "" {
		return nil, fmt.Errorf("html_extract: required input 'selector' is missing")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("html_extract: parsing document: %w", err)
	}

	var parts []string
	selection := doc.Find(selector)
	selection.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})

	return map[string]any{
		"text":    strings.Join(parts, "\n"),
		"matches": float64(selection.Length()),
	}, nil
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
