package k8s

import (
	"fmt"
	"os"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// kubeconfigFileMode is the file mode for kubeconfig files.
const kubeconfigFileMode = 0o600

// RenameContext renames a kubeconfig context entry, updating the current
// context if it pointed at the old name. The cluster and user entries the
// context references are left untouched.
func RenameContext(kubeconfigPath, oldName, newName string) error {
	return editKubeconfig(kubeconfigPath, func(config *clientcmdapi.Config) error {
		contextEntry, ok := config.Contexts[oldName]
		if !ok {
			return fmt.Errorf("%w: %s", ErrContextNotFound, oldName)
		}

		config.Contexts[newName] = contextEntry
		delete(config.Contexts, oldName)

		if config.CurrentContext == oldName {
			config.CurrentContext = newName
		}

		return nil
	})
}

// SetServerURL rewrites the server address of the cluster referenced by the
// named context. This is how the harness points a freshly generated
// kubeconfig at the externally reachable API endpoint.
func SetServerURL(kubeconfigPath, contextName, serverURL string) error {
	return editKubeconfig(kubeconfigPath, func(config *clientcmdapi.Config) error {
		contextEntry, ok := config.Contexts[contextName]
		if !ok {
			return fmt.Errorf("%w: %s", ErrContextNotFound, contextName)
		}

		clusterEntry, ok := config.Clusters[contextEntry.Cluster]
		if !ok {
			return fmt.Errorf("%w: %s", ErrClusterEntryNotFound, contextEntry.Cluster)
		}

		clusterEntry.Server = serverURL

		return nil
	})
}

// editKubeconfig loads the kubeconfig, applies the mutation, and writes the
// result back with restrictive permissions.
func editKubeconfig(kubeconfigPath string, mutate func(*clientcmdapi.Config) error) error {
	kubeconfigBytes, err := os.ReadFile(kubeconfigPath) //nolint:gosec // path owned by the harness
	if err != nil {
		return fmt.Errorf("read kubeconfig: %w", err)
	}

	config, err := clientcmd.Load(kubeconfigBytes)
	if err != nil {
		return fmt.Errorf("parse kubeconfig: %w", err)
	}

	err = mutate(config)
	if err != nil {
		return err
	}

	result, err := clientcmd.Write(*config)
	if err != nil {
		return fmt.Errorf("serialize kubeconfig: %w", err)
	}

	err = os.WriteFile(kubeconfigPath, result, kubeconfigFileMode)
	if err != nil {
		return fmt.Errorf("write kubeconfig: %w", err)
	}

	return nil
}
