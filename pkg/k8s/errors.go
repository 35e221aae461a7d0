package k8s

import "errors"

var (
	// ErrKubeconfigPathEmpty is returned when a kubeconfig path is required but empty.
	ErrKubeconfigPathEmpty = errors.New("kubeconfig path cannot be empty")
	// ErrResourceNotFound is returned when a label-selected resource never appeared.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrContextNotFound is returned when a kubeconfig context entry is missing.
	ErrContextNotFound = errors.New("kubeconfig context not found")
	// ErrClusterEntryNotFound is returned when a kubeconfig cluster entry is missing.
	ErrClusterEntryNotFound = errors.New("kubeconfig cluster entry not found")
	// ErrUnknownResourceKind is returned for resource kinds the watcher cannot query.
	ErrUnknownResourceKind = errors.New("unknown resource kind")
	// ErrPodsNotReady is returned by single-shot readiness checks when the
	// selected pods are absent or not yet Ready.
	ErrPodsNotReady = errors.New("pods not ready")
)
