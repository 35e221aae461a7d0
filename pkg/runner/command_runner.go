// Package runner executes external commands on behalf of the harness.
//
// Two flavours exist: CommandRunner drives in-process Cobra commands (the kind
// bootstrap tool ships its CLI as Cobra commands), while ExecRunner shells out
// to standalone binaries such as the chart synchronization tool. Both capture
// stdout and stderr so callers can inspect diagnostics after a failure.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Result captures the stdout and stderr collected during a command execution.
// Both fields contain the complete output, including anything produced before
// an error occurred.
type Result struct {
	Stdout string
	Stderr string
}

// CommandRunner executes Cobra commands while capturing their output.
type CommandRunner interface {
	Run(ctx context.Context, cmd *cobra.Command, args []string) (Result, error)
}

// CobraCommandRunner executes any Cobra command with console output.
// Output is displayed in real-time while also being captured for the result.
type CobraCommandRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewCobraCommandRunner creates a command runner for Cobra commands.
// If stdout or stderr are nil, they default to os.Stdout and os.Stderr.
func NewCobraCommandRunner(stdout, stderr io.Writer) *CobraCommandRunner {
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &CobraCommandRunner{stdout: stdout, stderr: stderr}
}

// Run executes a Cobra command, streaming output to the configured writers
// while capturing it for the Result. Usage and error messages are silenced
// since the caller handles error reporting.
func (r *CobraCommandRunner) Run(
	ctx context.Context,
	cmd *cobra.Command,
	args []string,
) (Result, error) {
	var outBuf, errBuf bytes.Buffer

	cmd.SetOut(io.MultiWriter(&outBuf, r.stdout))
	cmd.SetErr(io.MultiWriter(&errBuf, r.stderr))

	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	execErr := cmd.ExecuteContext(ctx)

	result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
	if execErr != nil {
		return result, fmt.Errorf("command execution failed: %w", execErr)
	}

	return result, nil
}
