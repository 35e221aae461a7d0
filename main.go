// Package main is the entry point for the harness CLI.
package main

import (
	"io"
	"os"
	"runtime/debug"

	"github.com/runtime-copilot/cluster-harness/internal/buildmeta"
	"github.com/runtime-copilot/cluster-harness/pkg/cli/cmd"
	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

func main() {
	os.Exit(run(os.Args[1:], executeRoot, os.Stderr))
}

// run executes the CLI, converting panics into an error line plus stack trace
// on errWriter and a non-zero exit code.
//
//nolint:nonamedreturns // Named return simplifies panic recovery logic.
func run(args []string, execute func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if recovered := recover(); recovered != nil {
			notify.Errorf(errWriter, "unexpected failure: %v", recovered)
			_, _ = errWriter.Write(debug.Stack())

			exitCode = 1
		}
	}()

	return execute(args)
}

func executeRoot(args []string) int {
	rootCmd := cmd.NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	err := cmd.Execute(rootCmd)
	if err != nil {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)

		return 1
	}

	return 0
}
