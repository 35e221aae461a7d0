package cmd

import (
	"os"
	"path/filepath"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"

	"github.com/runtime-copilot/cluster-harness/pkg/client/docker"
	"github.com/runtime-copilot/cluster-harness/pkg/config"
)

// engineFactory builds the container engine client. Tests swap it out so
// commands never touch a real engine socket.
//
//nolint:gochecknoglobals // Test seam mirroring the provisioner factory override.
var engineFactory = docker.NewEngineClient

func newEngineClient() (client.APIClient, error) {
	return engineFactory()
}

// clusterFlagKeys maps cluster flags to their configuration keys.
//
//nolint:gochecknoglobals // Static flag-to-key table.
var clusterFlagKeys = map[string]string{
	"name":           "cluster.name",
	"kubeconfig":     "cluster.kubeconfig",
	"node-image":     "cluster.node-image",
	"cluster-config": "cluster.config-path",
	"context-alias":  "cluster.context-alias",
	"network":        "cluster.network",
	"api-port":       "cluster.api-port",
}

// offlineFlagKeys maps offline workflow flags to their configuration keys.
//
//nolint:gochecknoglobals // Static flag-to-key table.
var offlineFlagKeys = map[string]string{
	"chart-repo-url":      "chart.repo-url",
	"chart-repo-password": "chart.repo-password",
	"chart-name":          "chart.name",
	"chart-version":       "chart.version",
	"bundle-dir":          "chart.bundle-dir",
	"work-dir":            "chart.work-dir",
	"registry-name":       "registry.name",
	"registry-port":       "registry.port",
}

func addClusterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("name", "", "cluster name")
	flags.String("kubeconfig", "", "path for the generated kubeconfig")
	flags.String("node-image", "", "kind node image reference")
	flags.String("cluster-config", "", "kind cluster configuration file")
	flags.String("context-alias", "", "kubeconfig context name to use")
	flags.String("network", "", "container network the cluster nodes join")
	flags.Int("api-port", 0, "API server port inside the control-plane container")
}

func addOfflineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("chart-repo-url", "", "upstream Helm repository URL")
	flags.String("chart-repo-password", "", "upstream Helm repository password")
	flags.String("chart-name", "", "chart to sync")
	flags.String("chart-version", "", "chart version to sync")
	flags.String("bundle-dir", "", "directory holding the intermediate chart bundle")
	flags.String("work-dir", "", "directory for rendered syncer configs")
	flags.String("registry-name", "", "local registry container name")
	flags.Int("registry-port", 0, "local registry host port")
}

// loadConfig builds the configuration manager, binds the command's flags over
// the file and environment layers, and loads the result. Flags always win.
func loadConfig(cmd *cobra.Command, keysets ...map[string]string) (*config.Config, error) {
	manager := config.NewManager(cmd.OutOrStdout())

	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		manager.SetConfigFile(path)
	}

	for _, keys := range keysets {
		for flagName, key := range keys {
			flag := cmd.Flags().Lookup(flagName)
			if flag != nil {
				_ = manager.Viper.BindPFlag(key, flag)
			}
		}
	}

	return manager.Load()
}

// kubeconfigPath resolves the kubeconfig location, falling back to a
// cluster-scoped file under the system temp directory.
func kubeconfigPath(cfg *config.Config) string {
	if cfg.Cluster.KubeconfigPath != "" {
		return cfg.Cluster.KubeconfigPath
	}

	return filepath.Join(os.TempDir(), "harness-"+cfg.Cluster.Name+"-kubeconfig")
}

// contextName resolves the kubeconfig context the harness operates under.
func contextName(cfg *config.Config) string {
	if cfg.Cluster.ContextAlias != "" {
		return cfg.Cluster.ContextAlias
	}

	return cfg.Cluster.Name
}
