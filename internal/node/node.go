// Package node defines the uniform execution contract that every node
// implementation satisfies: static type metadata plus a single Execute
// operation. The registry holds constructors for Executors; the executor
// package dispatches them.
package node

import (
	"context"
	"time"

	"github.com/vk/flowgridgo/internal/workflow"
)

// Definition is the static metadata a node type exposes to the registry and
// the editor: its identifier, declared parameters, defaults, trigger
// compatibility, and an optional execution timeout.
type Definition struct {
	// Type identifies the implementation; workflow.Node.Type refers to it.
	Type string

	// Name is the human-readable display name.
	Name string

	Description string

	Inputs  []workflow.Parameter
	Outputs []workflow.Parameter

	// Defaults provides type-level default values for inputs, used when a
	// node declaration does not override them.
	Defaults map[string]any

	// Compat restricts the trigger kinds this node type may be used with.
	// Empty means compatible with every kind.
	Compat []workflow.TriggerKind

	// Timeout bounds a single execution of this node type. Zero means the
	// executor's default applies.
	Timeout time.Duration
}

// CompatibleWith reports whether the node type may appear in a workflow
// started by the given trigger kind.
func (d *Definition) CompatibleWith(kind workflow.TriggerKind) bool {
	if len(d.Compat) == 0 {
		return true
	}
	for _, k := range d.Compat {
		if k == kind {
			return true
		}
	}
	return false
}

// SecretSource resolves credentials for node implementations. The engine
// never implements it; the host injects one and the executor forwards it
// through the execution context.
type SecretSource interface {
	// Secret returns the named secret value.
	Secret(ctx context.Context, name string) (string, error)

	// Integration returns the stored configuration of a third-party
	// integration by id.
	Integration(ctx context.Context, id string) (map[string]any, error)
}

// ProgressFunc reports incremental progress of a long-running node.
// fraction is in [0, 1].
type ProgressFunc func(fraction float64, message string)

// Trigger carries the externally supplied values that started the run,
// keyed by parameter name.
type Trigger struct {
	Kind   workflow.TriggerKind
	Values map[string]any
}

// Context is the per-invocation execution context handed to Execute. Inputs
// hold the resolved values for the node's declared input parameters; a
// missing key means the value could not be resolved and the implementation
// decides whether that is fatal.
type Context struct {
	Inputs map[string]any

	Trigger Trigger

	WorkflowID     string
	OrganizationID string
	RunID          string

	Secrets  SecretSource
	Progress ProgressFunc
}

// Input returns the resolved value for a declared input.
func (c *Context) Input(name string) (any, bool) {
	v, ok := c.Inputs[name]
	return v, ok
}

// StringInput returns the resolved value for name if it is a string.
func (c *Context) StringInput(name string) (string, bool) {
	if s, ok := c.Inputs[name].(string); ok {
		return s, true
	}
	return "", false
}

// NumberInput returns the resolved value for name coerced to float64.
func (c *Context) NumberInput(name string) (float64, bool) {
	switch v := c.Inputs[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// BoolInput returns the resolved value for name if it is a boolean.
func (c *Context) BoolInput(name string) (bool, bool) {
	if v, ok := c.Inputs[name].(bool); ok {
		return v, true
	}
	return false, false
}

// ReportProgress invokes the progress callback when one is attached.
func (c *Context) ReportProgress(fraction float64, message string) {
	if c.Progress != nil {
		c.Progress(fraction, message)
	}
}

// Executor is the execution contract. Execute returns the node's output
// values keyed by output-parameter name, or a descriptive error. An
// implementation must not panic; the dispatcher converts any escaped fault
// into an error result, but well-behaved nodes report failures as errors.
type Executor interface {
	Definition() *Definition
	Execute(ctx context.Context, nc *Context) (map[string]any, error)
}

// funcExecutor adapts a bare function to the Executor interface for node
// types that keep no per-declaration state.
type funcExecutor struct {
	def *Definition
	fn  func(ctx context.Context, nc *Context) (map[string]any, error)
}

func (f *funcExecutor) Definition() *Definition { return f.def }

func (f *funcExecutor) Execute(ctx context.Context, nc *Context) (map[string]any, error) {
	return f.fn(ctx, nc)
}

// Func wraps fn as an Executor with the given definition.
func Func(def *Definition, fn func(ctx context.Context, nc *Context) (map[string]any, error)) Executor {
	return &funcExecutor{def: def, fn: fn}
}
