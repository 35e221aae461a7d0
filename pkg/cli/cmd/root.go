package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with version info and all subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harness",
		Short: "harness provisions and validates ephemeral kind clusters for e2e runs",
		Long: `harness drives the end-to-end validation environment for the
runtime-copilot registry-configuration controller: it creates an ephemeral
kind cluster, verifies it against the container engine, waits for full
readiness, and stages an offline chart bundle through a local registry.`,
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (built on %s from %s)", version, date, commit)

	cmd.PersistentFlags().String("config", "", "path to the harness config file")

	cmd.AddCommand(NewUpCmd())
	cmd.AddCommand(NewDownCmd())
	cmd.AddCommand(NewOfflineCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewVersionCmd(version, commit, date))

	return cmd
}

// Execute runs the root command.
func Execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as help rendering cannot fail at runtime.
	_ = cmd.Help()

	return nil
}
