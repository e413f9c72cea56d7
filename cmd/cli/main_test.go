package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to signal a clean exit.
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_InvalidWorkflowFile(t *testing.T) {
	t.Parallel()

	// HCL with a syntax error must surface as a load error, not a crash.
	invalidHCL := `
		workflow "broken" {
			node "log_value" "a" {
		// Missing closing braces
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "workflow.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"--log-level", "error", filePath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load workflow")
}

func TestRun_ExecutesWorkflowEndToEnd(t *testing.T) {
	t.Parallel()

	// A one-node workflow against the compiled-in log_value module.
	src := `
workflow "smoke" {
  node "log_value" "only" {
    input "value" {
      type    = "any"
      default = "ping"
    }
    output "value" {
      type = "any"
    }
  }
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "workflow.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(src), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"--log-level", "error", "--log-format", "text", filePath})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `Workflow "smoke" completed`)
}

func TestRun_BadFlagReturnsExitError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--log-format", "xml", "whatever.hcl"})
	require.Error(t, err)
}
