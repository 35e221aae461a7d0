package k8s_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/runtime-copilot/cluster-harness/pkg/k8s"
)

const testKubeconfig = `apiVersion: v1
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

func writeTestKubeconfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "host.config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	return path
}

func TestRenameContext(t *testing.T) {
	t.Parallel()

	path := writeTestKubeconfig(t)

	err := k8s.RenameContext(path, "kind-host", "host")
	require.NoError(t, err)

	config, err := clientcmd.LoadFromFile(path)
	require.NoError(t, err)

	assert.NotContains(t, config.Contexts, "kind-host")
	require.Contains(t, config.Contexts, "host")
	assert.Equal(t, "host", config.CurrentContext)
	assert.Equal(t, "kind-host", config.Contexts["host"].Cluster)
}

func TestRenameContextMissing(t *testing.T) {
	t.Parallel()

	path := writeTestKubeconfig(t)

	err := k8s.RenameContext(path, "nope", "host")
	require.ErrorIs(t, err, k8s.ErrContextNotFound)
}

func TestSetServerURL(t *testing.T) {
	t.Parallel()

	path := writeTestKubeconfig(t)

	err := k8s.SetServerURL(path, "kind-host", "https://172.18.0.2:6443")
	require.NoError(t, err)

	config, err := clientcmd.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://172.18.0.2:6443", config.Clusters["kind-host"].Server)
}

func TestSetServerURLAfterRename(t *testing.T) {
	t.Parallel()

	path := writeTestKubeconfig(t)

	require.NoError(t, k8s.RenameContext(path, "kind-host", "host"))
	require.NoError(t, k8s.SetServerURL(path, "host", "https://172.18.0.2:6443"))

	config, err := clientcmd.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://172.18.0.2:6443", config.Clusters["kind-host"].Server)
}

func TestBuildRESTConfig(t *testing.T) {
	t.Parallel()

	path := writeTestKubeconfig(t)

	restConfig, err := k8s.BuildRESTConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:42123", restConfig.Host)
}

func TestBuildRESTConfigEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := k8s.BuildRESTConfig("", "")
	require.ErrorIs(t, err, k8s.ErrKubeconfigPathEmpty)
}
