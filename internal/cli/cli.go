package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/flowgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("flowgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
FlowGridGo - A workflow graph engine: validate, plan, and run node workflows.

Usage:
  flowgridgo [options] [WORKFLOW_PATH]

Arguments:
  WORKFLOW_PATH
    Path to a .hcl workflow file.

Options:
`)
		flagSet.PrintDefaults()
	}

	workflowFlag := flagSet.String("workflow", "", "Path to the workflow file.")
	wFlag := flagSet.String("w", "", "Path to the workflow file (shorthand).")
	triggerFlag := flagSet.String("trigger", "", "Override the workflow's trigger kind. Options: 'manual', 'http', 'schedule'.")
	triggerDataFlag := flagSet.String("trigger-data", "", "JSON object with trigger values offered to node inputs.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 1, "Number of concurrent workers for the dispatcher. 1 runs nodes in plan order.")
	storeFlag := flagSet.String("store", "", "Run history backend: a SQLite database path or a redis:// URL. Empty keeps history in memory.")
	haltFlag := flagSet.Bool("halt-on-error", false, "Stop the run on the first node error instead of continuing independent branches.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *workflowFlag != "" {
		path = *workflowFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Workflow path determined.", "path", path)

	if path == "" {
		slog.Debug("No workflow path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	trigger := strings.ToLower(*triggerFlag)
	switch trigger {
	case "", "manual", "http", "schedule":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid trigger: must be 'manual', 'http', or 'schedule'"}
	}

	var triggerData map[string]any
	if *triggerDataFlag != "" {
		if err := json.Unmarshal([]byte(*triggerDataFlag), &triggerData); err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid trigger-data: %v", err)}
		}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkflowPath: path,
		TriggerKind:  trigger,
		TriggerData:  triggerData,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Workers:      *workersFlag,
		StorePath:    *storeFlag,
		HaltOnError:  *haltFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
