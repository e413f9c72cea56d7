// Package runstore persists completed workflow runs for history and
// inspection views. The engine itself never writes here; the host saves the
// result list after a dispatch finishes.
package runstore

import (
	"context"
	"errors"
	"time"

	"github.com/vk/flowgridgo/internal/executor"
)

// ErrRunNotFound is returned when no run with the requested id exists.
var ErrRunNotFound = errors.New("runstore: run not found")

// Run is one recorded workflow execution.
type Run struct {
	ID        string            `json:"id"`
	Workflow  string            `json:"workflow"`
	StartedAt time.Time         `json:"started_at"`
	Results   []executor.Result `json:"results"`
}

// Store is the run-history persistence contract.
type Store interface {
	// SaveRun records a completed run.
	SaveRun(ctx context.Context, run *Run) error

	// Run retrieves a run by id. Returns ErrRunNotFound when absent.
	Run(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the recorded runs for a workflow, newest first.
	ListRuns(ctx context.Context, workflowName string) ([]*Run, error)

	// Close releases any underlying resources.
	Close() error
}
