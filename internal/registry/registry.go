package registry

import (
	"fmt"
	"sort"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/workflow"
)

// Constructor produces an executable instance bound to a node declaration.
// The declaration carries per-node configuration (parameter defaults,
// display name); the constructor must not run any of the node's work.
type Constructor func(n *workflow.Node) node.Executor

// Registered couples a node type's static metadata with its constructor.
type Registered struct {
	Definition *node.Definition
	New        Constructor
}

// Module is implemented by packages that contribute node types. Builtin
// node packages under modules/ each expose one.
type Module interface {
	Register(r *Registry) error
}

// Registry holds the registered node types for one execution environment.
type Registry struct {
	types map[string]*Registered
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]*Registered)}
}

// Register adds a node type to the catalog. Registering a type with no
// identifier, no constructor, or an identifier that is already taken is a
// configuration error, not a runtime fault.
func (r *Registry) Register(reg *Registered) error {
	if reg == nil || reg.Definition == nil || reg.Definition.Type == "" {
		return fmt.Errorf("registry: registration is missing a type identifier")
	}
	if reg.New == nil {
		return fmt.Errorf("registry: node type %q has no constructor", reg.Definition.Type)
	}
	if _, exists := r.types[reg.Definition.Type]; exists {
		return fmt.Errorf("registry: node type %q already registered", reg.Definition.Type)
	}
	r.types[reg.Definition.Type] = reg
	return nil
}

// NewExecutor instantiates the implementation for the given node
// declaration. The second return value is false when no implementation is
// registered for the node's type; this is a normal outcome (a type can be
// removed from the catalog after a workflow was saved) and is distinct from
// an execution error.
func (r *Registry) NewExecutor(n *workflow.Node) (node.Executor, bool) {
	reg, ok := r.types[n.Type]
	if !ok {
		return nil, false
	}
	return reg.New(n), true
}

// Definition returns the static metadata for a node type.
func (r *Registry) Definition(typeID string) (*node.Definition, bool) {
	reg, ok := r.types[typeID]
	if !ok {
		return nil, false
	}
	return reg.Definition, true
}

// Definitions lists registered type metadata, sorted by type identifier.
// A non-empty kind filters to types compatible with that trigger kind.
func (r *Registry) Definitions(kind workflow.TriggerKind) []*node.Definition {
	defs := make([]*node.Definition, 0, len(r.types))
	for _, reg := range r.types {
		if kind != "" && !reg.Definition.CompatibleWith(kind) {
			continue
		}
		defs = append(defs, reg.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}
