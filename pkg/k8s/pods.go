package k8s

import (
	"context"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/runtime-copilot/cluster-harness/pkg/wait"
)

// WaitForPodsReady polls until every pod in the namespace reports the Ready
// condition. An empty pod list does not count as ready; the control plane is
// expected to schedule its system pods before this check can pass.
func WaitForPodsReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace string,
	timeout time.Duration,
	interval time.Duration,
	writer io.Writer,
) error {
	err := wait.For(ctx, wait.Condition{
		Describe: fmt.Sprintf("all pods ready in %s", namespace),
		Timeout:  timeout,
		Eval: func(ctx context.Context) (bool, error) {
			pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return false, fmt.Errorf("list pods: %w", err)
			}

			if len(pods.Items) == 0 {
				return false, nil
			}

			for i := range pods.Items {
				if !isPodReady(&pods.Items[i]) {
					return false, nil
				}
			}

			return true, nil
		},
	}, wait.WithInterval(interval), wait.WithWriter(writer))
	if err != nil {
		return fmt.Errorf("pods in %s: %w", namespace, err)
	}

	return nil
}

// CheckPodsReady is a single-shot readiness check over pods matching the
// label selector. It returns ErrPodsNotReady (wrapped) when the selection is
// empty or any matched pod is not Ready, so callers can drive their own
// confirmation policy around it.
func CheckPodsReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace string,
	labelSelector string,
) error {
	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return fmt.Errorf("list pods: %w", err)
	}

	if len(pods.Items) == 0 {
		return fmt.Errorf("%w: no pods match %q in %s", ErrPodsNotReady, labelSelector, namespace)
	}

	for i := range pods.Items {
		pod := &pods.Items[i]
		if !isPodReady(pod) {
			return fmt.Errorf("%w: %s/%s", ErrPodsNotReady, namespace, pod.Name)
		}
	}

	return nil
}

// isPodReady returns true if the pod has condition Ready=True.
func isPodReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}

	return false
}
