package cmd_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtime-copilot/cluster-harness/pkg/cli/cmd"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd := cmd.NewRootCmd("0.1.0", "abc1234", "2026-01-01")
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

func TestRootShowsHelpWithoutArguments(t *testing.T) {
	t.Parallel()

	out, err := executeCommand(t)
	require.NoError(t, err)

	assert.Contains(t, out, "harness")
	assert.Contains(t, out, "up")
	assert.Contains(t, out, "down")
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "run")
}

func TestRootVersionFlag(t *testing.T) {
	t.Parallel()

	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "0.1.0")
	assert.Contains(t, out, "abc1234")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "harness 0.1.0")
	assert.Contains(t, out, "2026-01-01")
}

func TestUnknownCommandFails(t *testing.T) {
	t.Parallel()

	_, err := executeCommand(t, "teleport")
	require.Error(t, err)
}

func TestUpFailsWhenEngineUnavailable(t *testing.T) {
	t.Chdir(t.TempDir())

	errEngine := errors.New("engine socket unavailable")
	restore := cmd.SetEngineFactory(func() (client.APIClient, error) {
		return nil, errEngine
	})
	defer restore()

	_, err := executeCommand(t, "up", "--name", "e2e")
	require.ErrorIs(t, err, errEngine)
}

func TestDownFailsWhenEngineUnavailable(t *testing.T) {
	t.Chdir(t.TempDir())

	errEngine := errors.New("engine socket unavailable")
	restore := cmd.SetEngineFactory(func() (client.APIClient, error) {
		return nil, errEngine
	})
	defer restore()

	_, err := executeCommand(t, "down")
	require.ErrorIs(t, err, errEngine)
}
