package k8s

import (
	"context"
	"fmt"
	"io"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
	"github.com/runtime-copilot/cluster-harness/pkg/wait"
)

const (
	// DefaultWatchTimeout bounds a resource-existence poll.
	DefaultWatchTimeout = 300 * time.Second
	// DefaultWatchInterval is the pause between existence checks.
	DefaultWatchInterval = 5 * time.Second
)

// ResourceQuery selects cluster resources by kind, namespace, and label.
type ResourceQuery struct {
	// Kind is one of "pods", "deployments", "statefulsets", "daemonsets".
	Kind string
	// LabelSelector is a key=value selector the resources must match.
	LabelSelector string
	// Namespace scopes the query.
	Namespace string
	// Timeout bounds the poll. Zero means DefaultWatchTimeout.
	Timeout time.Duration
	// Interval is the pause between polls. Zero means DefaultWatchInterval.
	Interval time.Duration
}

// WaitForResourceExists polls until at least one resource matches the query.
// Existence alone is the success criterion; readiness is a separate, later
// concern. Returns ErrResourceNotFound (wrapped) on timeout.
func WaitForResourceExists(
	ctx context.Context,
	clientset kubernetes.Interface,
	query ResourceQuery,
	writer io.Writer,
) error {
	switch query.Kind {
	case "pods", "deployments", "statefulsets", "daemonsets":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownResourceKind, query.Kind)
	}

	timeout := query.Timeout
	if timeout == 0 {
		timeout = DefaultWatchTimeout
	}

	interval := query.Interval
	if interval == 0 {
		interval = DefaultWatchInterval
	}

	waitErr := wait.For(ctx, wait.Condition{
		Describe: fmt.Sprintf("%s with label %s in %s", query.Kind, query.LabelSelector, query.Namespace),
		Timeout:  timeout,
		Eval: func(ctx context.Context) (bool, error) {
			count, err := countMatching(ctx, clientset, query)
			if err != nil {
				return false, err
			}

			if count > 0 {
				notify.Infof(writer, "%s resource created (%d matching)", query.Kind, count)

				return true, nil
			}

			return false, nil
		},
	}, wait.WithInterval(interval), wait.WithWriter(writer))
	if waitErr != nil {
		return fmt.Errorf("%w: no %s matching %s in namespace %s: %w",
			ErrResourceNotFound, query.Kind, query.LabelSelector, query.Namespace, waitErr)
	}

	return nil
}

// countMatching lists the queried kind and returns how many objects matched.
func countMatching(
	ctx context.Context,
	clientset kubernetes.Interface,
	query ResourceQuery,
) (int, error) {
	listOptions := metav1.ListOptions{LabelSelector: query.LabelSelector}

	switch query.Kind {
	case "pods":
		list, err := clientset.CoreV1().Pods(query.Namespace).List(ctx, listOptions)
		if err != nil {
			return 0, fmt.Errorf("list pods: %w", err)
		}

		return len(list.Items), nil
	case "deployments":
		list, err := clientset.AppsV1().Deployments(query.Namespace).List(ctx, listOptions)
		if err != nil {
			return 0, fmt.Errorf("list deployments: %w", err)
		}

		return len(list.Items), nil
	case "statefulsets":
		list, err := clientset.AppsV1().StatefulSets(query.Namespace).List(ctx, listOptions)
		if err != nil {
			return 0, fmt.Errorf("list statefulsets: %w", err)
		}

		return len(list.Items), nil
	case "daemonsets":
		list, err := clientset.AppsV1().DaemonSets(query.Namespace).List(ctx, listOptions)
		if err != nil {
			return 0, fmt.Errorf("list daemonsets: %w", err)
		}

		return len(list.Items), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownResourceKind, query.Kind)
	}
}
