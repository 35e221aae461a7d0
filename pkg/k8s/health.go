package k8s

import (
	"context"
	"fmt"
	"io"
	"time"

	"k8s.io/client-go/kubernetes"

	"github.com/runtime-copilot/cluster-harness/pkg/wait"
)

// WaitForAPIServerHealthy polls the API server's unauthenticated /healthz
// endpoint until it answers "ok". The endpoint responds before authentication
// is configured, which makes it the earliest reliable signal that the control
// plane is serving.
func WaitForAPIServerHealthy(
	ctx context.Context,
	clientset kubernetes.Interface,
	timeout time.Duration,
	interval time.Duration,
	writer io.Writer,
) error {
	err := wait.For(ctx, wait.Condition{
		Describe: "api server /healthz",
		Timeout:  timeout,
		Eval: func(ctx context.Context) (bool, error) {
			body, err := clientset.Discovery().RESTClient().
				Get().
				AbsPath("/healthz").
				DoRaw(ctx)
			if err != nil {
				return false, fmt.Errorf("query /healthz: %w", err)
			}

			return string(body) == "ok", nil
		},
	}, wait.WithInterval(interval), wait.WithWriter(writer))
	if err != nil {
		return fmt.Errorf("api server health: %w", err)
	}

	return nil
}
