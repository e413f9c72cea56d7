// Package httprequest provides the 'http_request' node: it performs one
// HTTP request and exposes the response status and body to downstream
// nodes.
package httprequest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package. A nil
// Client falls back to http.DefaultClient; hosts and tests inject their
// own.
type Module struct {
	Client *http.Client
}

var definition = &node.Definition{
	Type:        "http_request",
	Name:        "HTTP Request",
	Description: "Performs an HTTP request and returns the response status code and body.",
	Inputs: []workflow.Parameter{
		{Name: "url", Type: workflow.TypeString},
		{Name: "method", Type: workflow.TypeString},
		{Name: "body", Type: workflow.TypeString},
	},
	Outputs: []workflow.Parameter{
		{Name: "status_code", Type: workflow.TypeNumber},
		{Name: "body", Type: workflow.TypeString},
	},
	Defaults: map[string]any{"method": http.MethodGet},
	Timeout:  30 * time.Second,
}

type executor struct {
	client *http.Client
}

func (e *executor) Definition() *node.Definition { return definition }

func (e *executor) Execute(ctx context.Context, nc *node.Context) (map[string]any, error) {
	url, ok := nc.StringInput("url")
	if !ok || url == "" {
		return nil, fmt.Errorf("http_request: required input 'url' is missing")
	}
	method, ok := nc.StringInput("method")
	if !ok {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if body, ok := nc.StringInput("body"); ok && body != "" {
		reqBody = strings.NewReader(body)
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", method, "url", url)

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return map[string]any{
		"status_code": float64(resp.StatusCode),
		"body":        string(respBody),
	}, nil
}

// Register registers the node type with the engine.
func (m *Module) Register(r *registry.Registry) error {
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	return r.Register(&registry.Registered{
		Definition: definition,
		New: func(*workflow.Node) node.Executor {
			return &executor{client: client}
		},
	})
}
