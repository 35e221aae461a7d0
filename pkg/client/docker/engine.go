// Package docker wraps the container engine API used as ground truth for
// cluster state.
//
// The bootstrap tool's exit code has been observed to disagree with reality
// (reporting success while no control-plane container runs), so every
// existence and readiness decision in the harness is verified against the
// engine's own process list and inspection data instead.
package docker

import (
	"fmt"

	"github.com/docker/docker/client"
)

// NewEngineClient creates a container engine client from the environment
// (DOCKER_HOST and friends), negotiating the API version with the daemon.
func NewEngineClient() (client.APIClient, error) {
	engineClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create container engine client: %w", err)
	}

	return engineClient, nil
}
