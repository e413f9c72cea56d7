package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string // path to the .hcl workflow file

	// TriggerKind and TriggerData describe how the run is started. The
	// trigger values are offered to nodes whose inputs resolve to nothing
	// else.
	TriggerKind string
	TriggerData map[string]any

	LogFormat string
	LogLevel  string

	// Workers selects the dispatch mode. 1 dispatches strictly in plan
	// order; larger values enable concurrent dispatch.
	Workers int

	// StorePath selects the run-history store. Empty keeps history in
	// memory for the lifetime of the process, a redis:// URL selects a
	// Redis backend, and any other value is a SQLite database path.
	StorePath string

	// HaltOnError short-circuits the remainder of the plan on the first
	// node error instead of continuing independent branches.
	HaltOnError bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &cfg, nil
}
