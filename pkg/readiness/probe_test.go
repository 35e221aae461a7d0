package readiness_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/runtime-copilot/cluster-harness/pkg/k8s"
	"github.com/runtime-copilot/cluster-harness/pkg/platform"
	"github.com/runtime-copilot/cluster-harness/pkg/readiness"
)

const generatedKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:42123
  name: kind-host
contexts:
- context:
    cluster: kind-host
    user: kind-host
  name: kind-host
current-context: kind-host
users:
- name: kind-host
  user: {}
`

// fakeEngine serves a single running control-plane container.
type fakeEngine struct {
	inspect container.InspectResponse
}

func (f *fakeEngine) ContainerList(
	_ context.Context,
	_ container.ListOptions,
) ([]container.Summary, error) {
	return []container.Summary{
		{ID: "cp", Names: []string{"/host-control-plane"}, State: "running"},
	}, nil
}

func (f *fakeEngine) ContainerInspect(
	_ context.Context,
	_ string,
) (container.InspectResponse, error) {
	return f.inspect, nil
}

func runningControlPlane() container.InspectResponse {
	return container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			Name:  "/host-control-plane",
			State: &container.State{Status: "running"},
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

func readySystemPod(name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "kube-system"},
		Status: corev1.PodStatus{
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func newTestProbe(
	t *testing.T,
	hostPlatform platform.Platform,
) (*readiness.Probe, string) {
	t.Helper()

	kubeconfigPath := filepath.Join(t.TempDir(), "host.config")
	require.NoError(t, os.WriteFile(kubeconfigPath, []byte(generatedKubeconfig), 0o600))

	config := readiness.Config{
		ClusterName:    "host",
		KubeconfigPath: kubeconfigPath,
		ContextAlias:   "host",
		StageTimeout:   time.Second,
		PollInterval:   time.Millisecond,
	}

	probe := readiness.New(config, &fakeEngine{inspect: runningControlPlane()}, hostPlatform, nil)

	clientset := fake.NewClientset(readySystemPod("etcd-host-control-plane"))
	probe.SetClientsetFactory(func(_, _ string) (kubernetes.Interface, error) {
		return clientset, nil
	})
	probe.SetHealthWait(func(_ context.Context, _ kubernetes.Interface) error {
		return nil
	})

	return probe, kubeconfigPath
}

func TestRunRewritesServerToBridgeAddressOnLinux(t *testing.T) {
	t.Parallel()

	probe, kubeconfigPath := newTestProbe(t, platform.Linux)

	err := probe.Run(context.Background())
	require.NoError(t, err)

	config, err := clientcmd.LoadFromFile(kubeconfigPath)
	require.NoError(t, err)

	require.Contains(t, config.Contexts, "host")
	assert.NotContains(t, config.Contexts, "kind-host")
	assert.Equal(t, "https://172.18.0.2:6443", config.Clusters["kind-host"].Server)
}

func TestRunRewritesServerToPublishedPortOnDarwin(t *testing.T) {
	t.Parallel()

	probe, kubeconfigPath := newTestProbe(t, platform.Darwin)

	err := probe.Run(context.Background())
	require.NoError(t, err)

	config, err := clientcmd.LoadFromFile(kubeconfigPath)
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:41381", config.Clusters["kind-host"].Server)
}

func TestRunFailsWhenKubeconfigNeverAppears(t *testing.T) {
	t.Parallel()

	config := readiness.Config{
		ClusterName:    "host",
		KubeconfigPath: filepath.Join(t.TempDir(), "never.config"),
		StageTimeout:   30 * time.Millisecond,
		PollInterval:   time.Millisecond,
	}

	probe := readiness.New(config, &fakeEngine{inspect: runningControlPlane()}, platform.Linux, nil)

	err := probe.Run(context.Background())
	require.Error(t, err)
}

func TestRunAbortsWhenSystemPodsNeverReady(t *testing.T) {
	t.Parallel()

	probe, _ := newTestProbe(t, platform.Linux)
	probe.SetPodsWait(func(_ context.Context, _ kubernetes.Interface) error {
		return k8s.ErrResourceNotFound
	})

	err := probe.Run(context.Background())
	require.ErrorIs(t, err, k8s.ErrResourceNotFound)
}
