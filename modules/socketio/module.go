// Package socketio provides the 'socketio_request' node: it connects to a
// Socket.IO server, optionally emits an event, and waits for a named
// response event within a bounded timeout.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var definition = &node.Definition{
	Type:        "socketio_request",
	Name:        "Socket.IO Request",
	Description: "Connects to a Socket.IO server, emits an event, and returns the payload of the awaited response event.",
	Inputs: []workflow.Parameter{
		{Name: "url", Type: workflow.TypeString},
		{Name: "namespace", Type: workflow.TypeString},
		{Name: "emit_event", Type: workflow.TypeString},
		{Name: "emit_data", Type: workflow.TypeJSON},
		{Name: "on_event", Type: workflow.TypeString},
		{Name: "insecure_skip_verify", Type: workflow.TypeBoolean},
	},
	Outputs: []workflow.Parameter{
		{Name: "response", Type: workflow.TypeJSON},
	},
	Defaults: map[string]any{"namespace": "/", "insecure_skip_verify": false},
	Timeout:  10 * time.Second,
}

// opResult passes the awaited event payload through the done channel.
type opResult struct {
	response any
	err      error
}

func run(ctx context.Context, nc *node.Context) (map[string]any, error) {
	rawURL, ok := nc.StringInput("url")
	if !ok || rawURL == "" {
		return nil, fmt.Errorf("socketio_request: required input 'url' is missing")
	}
	onEvent, ok := nc.StringInput("on_event")
	if !ok || onEvent == "" {
		return nil, fmt.Errorf("socketio_request: required input 'on_event' is missing")
	}
	namespace, ok := nc.StringInput("namespace")
	if !ok || namespace == "" {
		namespace = "/"
	}
	emitEvent, _ := nc.StringInput("emit_event")
	emitData, _ := nc.Input("emit_data")
	insecure, _ := nc.BoolInput("insecure_skip_verify")

	logger := ctxlog.FromContext(ctx).With("node", "socketio_request", "url", rawURL, "onEvent", onEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	var isConnected atomic.Bool
	done := make(chan opResult, 1)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("socketio_request: failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)

	if insecure {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Connected", "namespace", namespace, "sid", io.Id())
		if emitEvent != "" {
			logger.Info("Emitting event", "event", emitEvent)
			io.Emit(emitEvent, emitData)
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		if err, ok := errs[0].(error); ok {
			done <- opResult{err: err}
			return
		}
		done <- opResult{err: fmt.Errorf("connect_error: %v", errs[0])}
	})

	io.On(types.EventName(onEvent), func(data ...any) {
		var response any
		if len(data) > 0 {
			response = data[0]
		}
		done <- opResult{response: response}
	})

	io.Connect()

	select {
	case <-ctx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event %q", onEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return map[string]any{"response": res.response}, nil
	}
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
