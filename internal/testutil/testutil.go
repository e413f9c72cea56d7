// Package testutil provides shared helpers for engine tests: stub node
// modules, in-memory secret sources, graph builders, and a thread-safe log
// buffer.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// StubModule registers a single node type backed by Fn. Tests compose
// registries from these instead of the compiled-in modules.
type StubModule struct {
	Definition *node.Definition
	Fn         func(ctx context.Context, nc *node.Context) (map[string]any, error)
}

// Register implements registry.Module.
func (m *StubModule) Register(r *registry.Registry) error {
	def := m.Definition
	fn := m.Fn
	if fn == nil {
		fn = func(context.Context, *node.Context) (map[string]any, error) {
			return nil, nil
		}
	}
	return r.Register(&registry.Registered{
		Definition: def,
		New: func(*workflow.Node) node.Executor {
			return node.Func(def, fn)
		},
	})
}

// Stub builds a StubModule for a node type with any-typed value input and
// output, the common shape for dispatch tests.
func Stub(typeID string, fn func(ctx context.Context, nc *node.Context) (map[string]any, error)) *StubModule {
	return &StubModule{
		Definition: &node.Definition{
			Type: typeID,
			Name: typeID,
			Inputs: []workflow.Parameter{
				{Name: "value", Type: workflow.TypeAny},
			},
			Outputs: []workflow.Parameter{
				{Name: "value", Type: workflow.TypeAny},
			},
		},
		Fn: fn,
	}
}

// StaticSecrets is an in-memory node.SecretSource for tests.
type StaticSecrets map[string]string

// Secret implements node.SecretSource.
func (s StaticSecrets) Secret(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", fmt.Errorf("secret %q not found", name)
	}
	return v, nil
}

// Integration implements node.SecretSource. Static sources carry no
// integration records.
func (s StaticSecrets) Integration(_ context.Context, id string) (map[string]any, error) {
	return nil, fmt.Errorf("integration %q not found", id)
}
