package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd prints build metadata.
func NewVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print harness build metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"harness %s (built on %s from %s)\n",
				version, date, commit,
			)
			if err != nil {
				return fmt.Errorf("failed to write version: %w", err)
			}

			return nil
		},
	}
}
