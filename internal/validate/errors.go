package validate

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/workflow"
)

// Kind tags the class of a validation defect.
type Kind string

const (
	CycleDetected       Kind = "CYCLE_DETECTED"
	TypeMismatch        Kind = "TYPE_MISMATCH"
	InvalidConnection   Kind = "INVALID_CONNECTION"
	DuplicateConnection Kind = "DUPLICATE_CONNECTION"
)

// Error describes one validation defect with enough context to render a
// user-facing diagnostic. It is a plain value, not a control-flow signal.
type Error struct {
	Kind Kind

	// NodeID is set for CycleDetected: the node at which the back-edge was
	// found.
	NodeID string

	// Connection is set for edge-scoped defects.
	Connection *workflow.Connection

	// SourceType and TargetType are set for TypeMismatch.
	SourceType workflow.ParamType
	TargetType workflow.ParamType

	// Detail names the missing endpoint or parameter for InvalidConnection.
	Detail string
}

func (e Error) Error() string {
	switch e.Kind {
	case CycleDetected:
		return fmt.Sprintf("cycle detected involving node %q", e.NodeID)
	case TypeMismatch:
		return fmt.Sprintf("type mismatch on connection %s.%s -> %s.%s: %s does not match %s",
			e.Connection.Source, e.Connection.SourceOutput,
			e.Connection.Target, e.Connection.TargetInput,
			e.SourceType, e.TargetType)
	case InvalidConnection:
		return fmt.Sprintf("invalid connection %s.%s -> %s.%s: %s",
			e.Connection.Source, e.Connection.SourceOutput,
			e.Connection.Target, e.Connection.TargetInput,
			e.Detail)
	case DuplicateConnection:
		return fmt.Sprintf("duplicate connection %s.%s -> %s.%s",
			e.Connection.Source, e.Connection.SourceOutput,
			e.Connection.Target, e.Connection.TargetInput)
	default:
		return fmt.Sprintf("unknown validation error kind %q", string(e.Kind))
	}
}
