package cmd

import (
	"github.com/spf13/cobra"

	"github.com/runtime-copilot/cluster-harness/pkg/config"
	"github.com/runtime-copilot/cluster-harness/pkg/platform"
	kindprovisioner "github.com/runtime-copilot/cluster-harness/pkg/provisioner/kind"
	"github.com/runtime-copilot/cluster-harness/pkg/readiness"
	"github.com/runtime-copilot/cluster-harness/pkg/runner"
)

// NewUpCmd wires the cluster creation and readiness sequence.
func NewUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "up",
		Short:        "Create the cluster and wait until it is fully ready",
		Long:         `Create an ephemeral kind cluster, verify it against the container engine, and run the full readiness sequence.`,
		RunE:         handleUpRunE,
		SilenceUsage: true,
	}

	addClusterFlags(cmd)

	return cmd
}

func handleUpRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, clusterFlagKeys)
	if err != nil {
		return err
	}

	return upCluster(cmd, cfg)
}

// upCluster provisions the cluster and runs the readiness probe. It is shared
// with the run command.
func upCluster(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	engine, err := newEngineClient()
	if err != nil {
		return err
	}

	spec := kindprovisioner.ClusterSpec{
		Name:           cfg.Cluster.Name,
		KubeconfigPath: kubeconfigPath(cfg),
		NodeImage:      cfg.Cluster.NodeImage,
		ConfigPath:     cfg.Cluster.ConfigPath,
	}

	provisioner := kindprovisioner.NewProvisioner(
		spec,
		runner.NewCobraCommandRunner(out, cmd.ErrOrStderr()),
		engine,
		out,
	)

	err = provisioner.Create(cmd.Context())
	if err != nil {
		return err
	}

	hostPlatform, err := platform.Detect()
	if err != nil {
		return err
	}

	probe := readiness.New(readiness.Config{
		ClusterName:    cfg.Cluster.Name,
		KubeconfigPath: spec.KubeconfigPath,
		ContextAlias:   cfg.Cluster.ContextAlias,
		NetworkName:    cfg.Cluster.NetworkName,
		APIPort:        cfg.Cluster.APIPort,
		StageTimeout:   cfg.Timeouts.Stage,
		PollInterval:   cfg.Timeouts.Poll,
	}, engine, hostPlatform, out)

	return probe.Run(cmd.Context())
}
