package platform_test

import (
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtime-copilot/cluster-harness/pkg/platform"
)

const apiPort = 6443

func controlPlaneInspect() container.InspectResponse {
	return container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			Name: "/host-control-plane",
		},
		NetworkSettings: &container.NetworkSettings{
			NetworkSettingsBase: container.NetworkSettingsBase{
				Ports: nat.PortMap{
					"6443/tcp": []nat.PortBinding{
						{HostIP: "127.0.0.1", HostPort: "41381"},
					},
				},
			},
			Networks: map[string]*network.EndpointSettings{
				"kind": {IPAddress: "172.18.0.2"},
			},
		},
	}
}

func TestDetectFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		goos    string
		goarch  string
		want    platform.Platform
		wantErr error
	}{
		{name: "linux amd64", goos: "linux", goarch: "amd64", want: platform.Linux},
		{name: "linux arm64", goos: "linux", goarch: "arm64", want: platform.Linux},
		{name: "darwin arm64", goos: "darwin", goarch: "arm64", want: platform.Darwin},
		{name: "windows", goos: "windows", goarch: "amd64", wantErr: platform.ErrUnsupportedPlatform},
		{name: "386", goos: "linux", goarch: "386", wantErr: platform.ErrUnsupportedArch},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := platform.DetectFrom(testCase.goos, testCase.goarch)
			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestLinuxUsesBridgeNetworkAddress(t *testing.T) {
	t.Parallel()

	endpoint, err := platform.Linux.APIServerEndpoint(controlPlaneInspect(), "kind", apiPort)
	require.NoError(t, err)
	assert.Equal(t, "172.18.0.2:6443", endpoint)
}

func TestDarwinUsesPublishedHostPort(t *testing.T) {
	t.Parallel()

	endpoint, err := platform.Darwin.APIServerEndpoint(controlPlaneInspect(), "kind", apiPort)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:41381", endpoint)
}

func TestLinuxFailsWhenNotOnNetwork(t *testing.T) {
	t.Parallel()

	inspect := controlPlaneInspect()
	delete(inspect.NetworkSettings.Networks, "kind")

	_, err := platform.Linux.APIServerEndpoint(inspect, "kind", apiPort)
	require.ErrorIs(t, err, platform.ErrNotConnectedToNetwork)
}

func TestDarwinFailsWithoutPublishedPort(t *testing.T) {
	t.Parallel()

	inspect := controlPlaneInspect()
	inspect.NetworkSettings.Ports = nat.PortMap{}

	_, err := platform.Darwin.APIServerEndpoint(inspect, "kind", apiPort)
	require.ErrorIs(t, err, platform.ErrNoPublishedPort)
}

func TestEndpointResolutionFailsWithoutNetworkSettings(t *testing.T) {
	t.Parallel()

	inspect := container.InspectResponse{}

	_, err := platform.Linux.APIServerEndpoint(inspect, "kind", apiPort)
	require.ErrorIs(t, err, platform.ErrNoNetworkSettings)

	_, err = platform.Darwin.APIServerEndpoint(inspect, "kind", apiPort)
	require.ErrorIs(t, err, platform.ErrNoNetworkSettings)
}
