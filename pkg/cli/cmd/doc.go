// Package cmd assembles the harness command tree. Each subcommand wires the
// configuration manager, the container engine client, and the orchestration
// packages together; the packages themselves stay CLI-agnostic.
package cmd
