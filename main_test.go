package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsExecuteExitCode(t *testing.T) {
	t.Parallel()

	exitCode := run(nil, func(_ []string) int { return 3 }, io.Discard)
	assert.Equal(t, 3, exitCode)
}

func TestRunPassesArgsThrough(t *testing.T) {
	t.Parallel()

	var got []string

	exitCode := run([]string{"up", "--keep"}, func(args []string) int {
		got = args

		return 0
	}, io.Discard)

	assert.Zero(t, exitCode)
	assert.Equal(t, []string{"up", "--keep"}, got)
}

func TestRunRecoversPanicWithStackTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	exitCode := run(nil, func(_ []string) int {
		panic("kubeconfig vanished")
	}, &buf)

	require.Equal(t, 1, exitCode)

	output := buf.String()
	assert.Contains(t, output, "unexpected failure: kubeconfig vanished")
	assert.Contains(t, output, "goroutine")
}
