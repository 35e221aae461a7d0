package readiness

import (
	"context"

	"k8s.io/client-go/kubernetes"
)

// SetClientsetFactory overrides clientset construction for tests.
func (p *Probe) SetClientsetFactory(
	factory func(kubeconfig, context string) (kubernetes.Interface, error),
) {
	p.newClientset = factory
}

// SetHealthWait overrides the API server health stage for tests.
func (p *Probe) SetHealthWait(
	fn func(ctx context.Context, clientset kubernetes.Interface) error,
) {
	p.waitHealthy = fn
}

// SetPodsWait overrides the system-pods stage for tests.
func (p *Probe) SetPodsWait(
	fn func(ctx context.Context, clientset kubernetes.Interface) error,
) {
	p.waitPods = fn
}
