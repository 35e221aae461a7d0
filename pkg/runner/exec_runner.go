package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ErrExternalTool is returned when a one-shot external invocation exits non-zero.
var ErrExternalTool = errors.New("external tool failed")

// ExecRunner executes standalone binaries while capturing their output.
type ExecRunner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// OSExecRunner runs binaries found on the host PATH.
// Output is displayed in real-time while also being captured for the result.
type OSExecRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewOSExecRunner creates an exec runner for host binaries.
// If stdout or stderr are nil, they default to os.Stdout and os.Stderr.
func NewOSExecRunner(stdout, stderr io.Writer) *OSExecRunner {
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &OSExecRunner{stdout: stdout, stderr: stderr}
}

// Run executes the named binary with the given arguments. A non-zero exit is
// reported as ErrExternalTool with the captured stderr appended so the failing
// stage's diagnostics survive into the terminal error.
func (r *OSExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.MultiWriter(&outBuf, r.stdout)
	cmd.Stderr = io.MultiWriter(&errBuf, r.stderr)

	runErr := cmd.Run()

	result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
	if runErr != nil {
		return result, fmt.Errorf("%w: %s %v: %w: %s",
			ErrExternalTool, name, args, runErr, errBuf.String())
	}

	return result, nil
}
