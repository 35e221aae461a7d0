package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

// ErrContainerNotFound is returned when no container matches the requested name.
var ErrContainerNotFound = errors.New("container not found")

// ContainerLister is the subset of the engine API needed to query the process
// list.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// ContainerInspector is the subset of the engine API needed to inspect a
// single container.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// FindContainerByName searches the engine's process list (including stopped
// containers) for a container whose name contains the given substring.
// The second return value reports whether a match was found.
func FindContainerByName(
	ctx context.Context,
	lister ContainerLister,
	nameSubstring string,
) (container.Summary, bool, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("name", nameSubstring)

	containers, err := lister.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return container.Summary{}, false, fmt.Errorf("list containers: %w", err)
	}

	for _, summary := range containers {
		for _, name := range summary.Names {
			if strings.Contains(name, nameSubstring) {
				return summary, true, nil
			}
		}
	}

	return container.Summary{}, false, nil
}

// IsContainerRunning reports whether a container matching the name substring
// exists and is in the running state.
func IsContainerRunning(
	ctx context.Context,
	lister ContainerLister,
	nameSubstring string,
) (bool, error) {
	summary, found, err := FindContainerByName(ctx, lister, nameSubstring)
	if err != nil {
		return false, err
	}

	return found && summary.State == "running", nil
}

// InspectContainerByName resolves a container by name substring and inspects it.
func InspectContainerByName(
	ctx context.Context,
	engine interface {
		ContainerLister
		ContainerInspector
	},
	nameSubstring string,
) (container.InspectResponse, error) {
	summary, found, err := FindContainerByName(ctx, engine, nameSubstring)
	if err != nil {
		return container.InspectResponse{}, err
	}

	if !found {
		return container.InspectResponse{}, fmt.Errorf("%w: %s", ErrContainerNotFound, nameSubstring)
	}

	inspect, err := engine.ContainerInspect(ctx, summary.ID)
	if err != nil {
		return container.InspectResponse{}, fmt.Errorf("inspect container %s: %w", nameSubstring, err)
	}

	return inspect, nil
}
