package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/runtime-copilot/cluster-harness/pkg/config"
	"github.com/runtime-copilot/cluster-harness/pkg/k8s"
	"github.com/runtime-copilot/cluster-harness/pkg/retry"
	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

// NewRunCmd wires the full end-to-end sequence: cluster up, offline staging,
// and optional workload validation.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Provision, stage the chart bundle, and validate end to end",
		RunE:         handleRunRunE,
		SilenceUsage: true,
	}

	addClusterFlags(cmd)
	addOfflineFlags(cmd)

	flags := cmd.Flags()
	flags.String("selector", "", "label selector of the workload to wait for")
	flags.String("namespace", "default", "namespace of the workload")
	flags.Bool("keep", false, "keep the cluster after a successful run")

	return cmd
}

func handleRunRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, clusterFlagKeys, offlineFlagKeys)
	if err != nil {
		return err
	}

	err = upCluster(cmd, cfg)
	if err != nil {
		return err
	}

	err = runOffline(cmd, cfg)
	if err != nil {
		return err
	}

	err = validateWorkload(cmd, cfg)
	if err != nil {
		return err
	}

	keep, _ := cmd.Flags().GetBool("keep")
	if keep {
		notify.Infof(cmd.OutOrStdout(), "keeping cluster %s", cfg.Cluster.Name)

		return nil
	}

	return downCluster(cmd, cfg)
}

// validateWorkload waits for the deployed workload to appear and then
// confirms its readiness with a consecutive-success streak. A run without a
// selector skips validation.
func validateWorkload(cmd *cobra.Command, cfg *config.Config) error {
	selector, _ := cmd.Flags().GetString("selector")
	if selector == "" {
		return nil
	}

	namespace, _ := cmd.Flags().GetString("namespace")
	out := cmd.OutOrStdout()

	clientset, err := k8s.NewClientset(kubeconfigPath(cfg), contextName(cfg))
	if err != nil {
		return err
	}

	err = k8s.WaitForResourceExists(cmd.Context(), clientset, k8s.ResourceQuery{
		Kind:          "pods",
		LabelSelector: selector,
		Namespace:     namespace,
		Timeout:       cfg.Timeouts.Stage,
		Interval:      cfg.Timeouts.Poll,
	}, out)
	if err != nil {
		return err
	}

	return retry.Execute(
		cmd.Context(),
		retry.DefaultPolicy(),
		"workload pods ready",
		func(ctx context.Context) error {
			return k8s.CheckPodsReady(ctx, clientset, namespace, selector)
		},
		retry.WithWriter(out),
	)
}
