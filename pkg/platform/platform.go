// Package platform models the closed set of host platforms the harness runs on.
//
// Each supported platform carries its own strategy for resolving the externally
// reachable API server endpoint of a containerized cluster, so adding a
// platform is a variant addition rather than a new comparison arm.
package platform

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

// Unsupported host errors.
var (
	// ErrUnsupportedPlatform is returned for host operating systems outside the
	// supported set.
	ErrUnsupportedPlatform = errors.New("unsupported host platform")
	// ErrUnsupportedArch is returned for host architectures outside the
	// supported set.
	ErrUnsupportedArch = errors.New("unsupported host architecture")
)

// Endpoint resolution errors.
var (
	// ErrNoNetworkSettings is returned when the inspected container carries no
	// network configuration.
	ErrNoNetworkSettings = errors.New("container has no network settings")
	// ErrNotConnectedToNetwork is returned when the container is not attached
	// to the expected network.
	ErrNotConnectedToNetwork = errors.New("container is not connected to network")
	// ErrNoPublishedPort is returned when the container has no host-port
	// mapping for the API port.
	ErrNoPublishedPort = errors.New("container has no published port")
)

// Platform identifies a supported host operating-system family.
type Platform int

// Supported platforms.
const (
	// Linux reaches cluster containers directly over the container bridge
	// network.
	Linux Platform = iota
	// Darwin cannot reach container networks from the host and must use the
	// docker-published host-port mapping instead.
	Darwin
)

// String returns the GOOS name of the platform.
func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	default:
		return "unknown"
	}
}

// Detect returns the current host platform, failing fast on unsupported
// operating systems or architectures.
func Detect() (Platform, error) {
	return detect(runtime.GOOS, runtime.GOARCH)
}

func detect(goos, goarch string) (Platform, error) {
	if goarch != "amd64" && goarch != "arm64" {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedArch, goarch)
	}

	switch goos {
	case "linux":
		return Linux, nil
	case "darwin":
		return Darwin, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// endpointResolver turns a container inspection into a host-reachable
// "ip:port" address for the given in-container API port.
type endpointResolver func(inspect container.InspectResponse, networkName string, apiPort int) (string, error)

// resolvers holds the per-platform endpoint strategies. Adding a platform
// means adding one entry here.
var resolvers = map[Platform]endpointResolver{
	Linux:  bridgeNetworkEndpoint,
	Darwin: publishedPortEndpoint,
}

// APIServerEndpoint resolves the externally reachable address of the cluster's
// API server from the control-plane container's inspection data.
func (p Platform) APIServerEndpoint(
	inspect container.InspectResponse,
	networkName string,
	apiPort int,
) (string, error) {
	resolve, ok := resolvers[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}

	return resolve(inspect, networkName, apiPort)
}

// bridgeNetworkEndpoint returns the container's IP on the cluster network with
// the in-container API port. The container network is directly routable from a
// Linux host.
func bridgeNetworkEndpoint(
	inspect container.InspectResponse,
	networkName string,
	apiPort int,
) (string, error) {
	if inspect.NetworkSettings == nil || inspect.NetworkSettings.Networks == nil {
		return "", fmt.Errorf("%w: %s", ErrNoNetworkSettings, displayName(inspect))
	}

	endpoint, ok := inspect.NetworkSettings.Networks[networkName]
	if !ok || endpoint.IPAddress == "" {
		return "", fmt.Errorf("%w: %s on %s", ErrNotConnectedToNetwork, displayName(inspect), networkName)
	}

	return net.JoinHostPort(endpoint.IPAddress, strconv.Itoa(apiPort)), nil
}

// publishedPortEndpoint returns 127.0.0.1 with the host port docker published
// for the in-container API port.
func publishedPortEndpoint(
	inspect container.InspectResponse,
	_ string,
	apiPort int,
) (string, error) {
	if inspect.NetworkSettings == nil {
		return "", fmt.Errorf("%w: %s", ErrNoNetworkSettings, displayName(inspect))
	}

	natPort, err := nat.NewPort("tcp", strconv.Itoa(apiPort))
	if err != nil {
		return "", fmt.Errorf("build port key: %w", err)
	}

	bindings := inspect.NetworkSettings.Ports[natPort]
	if len(bindings) == 0 || bindings[0].HostPort == "" {
		return "", fmt.Errorf("%w: %s port %d", ErrNoPublishedPort, displayName(inspect), apiPort)
	}

	return net.JoinHostPort("127.0.0.1", bindings[0].HostPort), nil
}

// displayName extracts the container name for error messages without panicking
// on partially populated inspection responses.
func displayName(inspect container.InspectResponse) string {
	if inspect.ContainerJSONBase == nil {
		return "<unknown container>"
	}

	return inspect.Name
}
