package cmd

import (
	"github.com/spf13/cobra"

	"github.com/runtime-copilot/cluster-harness/pkg/client/docker"
	"github.com/runtime-copilot/cluster-harness/pkg/config"
	"github.com/runtime-copilot/cluster-harness/pkg/offline"
	"github.com/runtime-copilot/cluster-harness/pkg/runner"
)

// NewOfflineCmd wires the offline package workflow against an existing cluster.
func NewOfflineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "offline",
		Short:        "Stage the chart bundle through a local registry",
		Long:         `Sync the chart bundle from the upstream repository, serve it from a local registry, point the cluster's container runtime at that registry, and unpack the bundle for verification.`,
		RunE:         handleOfflineRunE,
		SilenceUsage: true,
	}

	addClusterFlags(cmd)
	addOfflineFlags(cmd)

	return cmd
}

func handleOfflineRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, clusterFlagKeys, offlineFlagKeys)
	if err != nil {
		return err
	}

	return runOffline(cmd, cfg)
}

// runOffline assembles and executes the offline workflow. Shared with the run
// command.
func runOffline(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	engine, err := newEngineClient()
	if err != nil {
		return err
	}

	workflow := offline.NewWorkflow(
		offline.Inputs{
			ChartRepoURL:      cfg.Chart.RepoURL,
			ChartRepoPassword: cfg.Chart.RepoPassword,
			ChartName:         cfg.Chart.Name,
			ChartVersion:      cfg.Chart.Version,
			BundleDir:         cfg.Chart.BundleDir,
			WorkDir:           cfg.Chart.WorkDir,
			ClusterName:       cfg.Cluster.Name,
			RegistryName:      cfg.Registry.Name,
			RegistryPort:      cfg.Registry.Port,
			NetworkName:       cfg.Cluster.NetworkName,
		},
		engine,
		docker.NewLocalRegistry(engine, out),
		runner.NewOSExecRunner(out, cmd.ErrOrStderr()),
		out,
	)

	return workflow.Run(cmd.Context())
}
