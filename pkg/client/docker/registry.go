package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	// RegistryImageName is the registry image run for offline package loading.
	RegistryImageName = "registry:3"
	// registryContainerPort is the port the registry listens on inside its
	// container.
	registryContainerPort nat.Port = "5000/tcp"
	// registryHostIP binds the published port to loopback only.
	registryHostIP = "127.0.0.1"
)

// RegistryConfig describes a local registry container to run on the host.
type RegistryConfig struct {
	// Name is the container name. The offline workflow uses a fixed well-known
	// name, so concurrent runs on one host collide; prior cleanup is the
	// caller's responsibility.
	Name string
	// Port is the host port published for the registry.
	Port int
	// NetworkName optionally attaches the registry to a container network.
	NetworkName string
}

// LocalRegistry manages a single registry container on the host engine.
type LocalRegistry struct {
	engine client.APIClient
	writer io.Writer
}

// NewLocalRegistry creates a registry manager backed by the given engine client.
func NewLocalRegistry(engine client.APIClient, writer io.Writer) *LocalRegistry {
	if writer == nil {
		writer = io.Discard
	}

	return &LocalRegistry{engine: engine, writer: writer}
}

// Start pulls the registry image if needed and runs the registry container
// with its port published on the host. Starting an already-existing container
// with the same name fails; the caller must have cleaned up beforehand.
func (r *LocalRegistry) Start(ctx context.Context, config RegistryConfig) error {
	err := r.pullImage(ctx)
	if err != nil {
		return err
	}

	containerConfig := &container.Config{
		Image:        RegistryImageName,
		ExposedPorts: nat.PortSet{registryContainerPort: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			registryContainerPort: []nat.PortBinding{
				{HostIP: registryHostIP, HostPort: strconv.Itoa(config.Port)},
			},
		},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyAlways},
	}

	var networkConfig *network.NetworkingConfig
	if config.NetworkName != "" {
		networkConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				config.NetworkName: {},
			},
		}
	}

	resp, err := r.engine.ContainerCreate(
		ctx,
		containerConfig,
		hostConfig,
		networkConfig,
		nil,
		config.Name,
	)
	if err != nil {
		return fmt.Errorf("create registry container %s: %w", config.Name, err)
	}

	err = r.engine.ContainerStart(ctx, resp.ID, container.StartOptions{})
	if err != nil {
		return fmt.Errorf("start registry container %s: %w", config.Name, err)
	}

	return nil
}

// Remove force-removes the registry container. A missing container is not an
// error so teardown stays idempotent.
func (r *LocalRegistry) Remove(ctx context.Context, name string) error {
	summary, found, err := FindContainerByName(ctx, r.engine, name)
	if err != nil {
		return err
	}

	if !found {
		return nil
	}

	err = r.engine.ContainerRemove(ctx, summary.ID, container.RemoveOptions{Force: true})
	if err != nil {
		return fmt.Errorf("remove registry container %s: %w", name, err)
	}

	return nil
}

// pullImage fetches the registry image, draining the pull progress stream so
// the operation completes before the container is created.
func (r *LocalRegistry) pullImage(ctx context.Context) error {
	reader, err := r.engine.ImagePull(ctx, RegistryImageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull registry image: %w", err)
	}
	defer func() { _ = reader.Close() }()

	_, err = io.Copy(io.Discard, reader)
	if err != nil {
		return fmt.Errorf("read registry image pull stream: %w", err)
	}

	return nil
}
