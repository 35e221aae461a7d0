package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/runtime-copilot/cluster-harness/pkg/client/docker"
	"github.com/runtime-copilot/cluster-harness/pkg/config"
	kindprovisioner "github.com/runtime-copilot/cluster-harness/pkg/provisioner/kind"
	"github.com/runtime-copilot/cluster-harness/pkg/runner"
	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

// NewDownCmd wires cluster teardown.
func NewDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "down",
		Short:        "Delete the cluster and its local registry",
		RunE:         handleDownRunE,
		SilenceUsage: true,
	}

	addClusterFlags(cmd)
	cmd.Flags().String("registry-name", "", "local registry container name")

	return cmd
}

func handleDownRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, clusterFlagKeys, map[string]string{
		"registry-name": "registry.name",
	})
	if err != nil {
		return err
	}

	return downCluster(cmd, cfg)
}

// downCluster tears the environment down. Teardown is tolerant throughout:
// a cluster or registry that is already gone is success, not failure.
func downCluster(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	engine, err := newEngineClient()
	if err != nil {
		return err
	}

	spec := kindprovisioner.ClusterSpec{
		Name:           cfg.Cluster.Name,
		KubeconfigPath: kubeconfigPath(cfg),
	}

	provisioner := kindprovisioner.NewProvisioner(
		spec,
		runner.NewCobraCommandRunner(out, cmd.ErrOrStderr()),
		engine,
		out,
	)

	err = provisioner.Delete(cmd.Context())
	if err != nil {
		return err
	}

	err = docker.NewLocalRegistry(engine, out).Remove(cmd.Context(), cfg.Registry.Name)
	if err != nil {
		notify.Warningf(out, "failed to remove registry container %s: %v", cfg.Registry.Name, err)
	}

	err = os.Remove(spec.KubeconfigPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		notify.Warningf(out, "failed to remove kubeconfig %s: %v", spec.KubeconfigPath, err)
	}

	return nil
}
