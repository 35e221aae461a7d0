// Package offline implements the offline package workflow: syncing a Helm
// chart bundle from an upstream repository, serving it from a local registry,
// pointing the cluster's container runtime at that registry, and unpacking
// the bundle for verification.
package offline
