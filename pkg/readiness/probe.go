// Package readiness asserts that a freshly created cluster is actually usable.
//
// The probe is a sequential composite: each stage is a bounded poll, and a
// failure at any stage aborts the remainder and surfaces to the caller, who
// decides whether to retry the whole cluster-creation cycle.
package readiness

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"k8s.io/client-go/kubernetes"

	"github.com/runtime-copilot/cluster-harness/pkg/client/docker"
	"github.com/runtime-copilot/cluster-harness/pkg/k8s"
	"github.com/runtime-copilot/cluster-harness/pkg/platform"
	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
	"github.com/runtime-copilot/cluster-harness/pkg/wait"
)

const (
	// DefaultStageTimeout bounds each probe stage.
	DefaultStageTimeout = 300 * time.Second
	// defaultAPIPort is the API server port inside the control-plane container.
	defaultAPIPort = 6443
	// defaultNetworkName is the container network kind attaches nodes to.
	defaultNetworkName = "kind"
	// systemNamespace hosts the control-plane pods whose readiness gates the
	// probe's final stage.
	systemNamespace = "kube-system"
	// kubeconfigPollInterval paces the kubeconfig-materialization wait.
	kubeconfigPollInterval = 1 * time.Second
)

// Engine is the container engine surface the probe needs.
type Engine interface {
	docker.ContainerLister
	docker.ContainerInspector
}

// Config describes the cluster the probe validates.
type Config struct {
	// ClusterName is the bootstrap tool's cluster name.
	ClusterName string
	// KubeconfigPath is the credentials file the bootstrap tool generated.
	KubeconfigPath string
	// ContextAlias is the caller-chosen name the generated context is renamed
	// to. Empty means keep ClusterName.
	ContextAlias string
	// NetworkName is the container network to resolve bridge addresses on.
	// Empty means the bootstrap tool's default network.
	NetworkName string
	// APIPort is the API server port inside the container. Zero means 6443.
	APIPort int
	// StageTimeout bounds each stage. Zero means DefaultStageTimeout.
	StageTimeout time.Duration
	// PollInterval paces the cluster-API polls. Zero means the wait package
	// default.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.ContextAlias == "" {
		c.ContextAlias = c.ClusterName
	}

	if c.NetworkName == "" {
		c.NetworkName = defaultNetworkName
	}

	if c.APIPort == 0 {
		c.APIPort = defaultAPIPort
	}

	if c.StageTimeout == 0 {
		c.StageTimeout = DefaultStageTimeout
	}

	return c
}

// generatedContext is the context name the bootstrap tool writes.
func (c Config) generatedContext() string {
	return "kind-" + c.ClusterName
}

// Probe validates cluster readiness stage by stage.
type Probe struct {
	config   Config
	engine   Engine
	platform platform.Platform
	writer   io.Writer

	newClientset func(kubeconfig, context string) (kubernetes.Interface, error)
	waitHealthy  func(ctx context.Context, clientset kubernetes.Interface) error
	waitPods     func(ctx context.Context, clientset kubernetes.Interface) error
}

// New constructs a Probe for the given cluster on the given host platform.
func New(config Config, engine Engine, hostPlatform platform.Platform, writer io.Writer) *Probe {
	if writer == nil {
		writer = io.Discard
	}

	config = config.withDefaults()

	probe := &Probe{
		config:   config,
		engine:   engine,
		platform: hostPlatform,
		writer:   writer,
	}

	probe.newClientset = func(kubeconfig, context string) (kubernetes.Interface, error) {
		return k8s.NewClientset(kubeconfig, context)
	}
	probe.waitHealthy = func(ctx context.Context, clientset kubernetes.Interface) error {
		return k8s.WaitForAPIServerHealthy(
			ctx, clientset, config.StageTimeout, config.PollInterval, writer,
		)
	}
	probe.waitPods = func(ctx context.Context, clientset kubernetes.Interface) error {
		return k8s.WaitForPodsReady(
			ctx, clientset, systemNamespace, config.StageTimeout, config.PollInterval, writer,
		)
	}

	return probe
}

// Run executes the readiness sequence:
//
//  1. wait for the kubeconfig file to materialize
//  2. wait for the control-plane container to report running
//  3. rename the generated context to the caller's alias
//  4. resolve the externally reachable API endpoint for the host platform and
//     rewrite the kubeconfig's server URL
//  5. wait for the API server health endpoint
//  6. wait for all system pods to be ready
func (p *Probe) Run(ctx context.Context) error {
	err := p.waitForKubeconfig(ctx)
	if err != nil {
		return err
	}

	err = p.waitForControlPlaneRunning(ctx)
	if err != nil {
		return err
	}

	err = k8s.RenameContext(p.config.KubeconfigPath, p.config.generatedContext(), p.config.ContextAlias)
	if err != nil {
		return fmt.Errorf("rename context: %w", err)
	}

	err = p.rewriteServerEndpoint(ctx)
	if err != nil {
		return err
	}

	clientset, err := p.newClientset(p.config.KubeconfigPath, p.config.ContextAlias)
	if err != nil {
		return fmt.Errorf("build cluster client: %w", err)
	}

	err = p.waitHealthy(ctx, clientset)
	if err != nil {
		return err
	}

	err = p.waitPods(ctx, clientset)
	if err != nil {
		return err
	}

	notify.Successf(p.writer, "cluster %s is ready", p.config.ClusterName)

	return nil
}

// waitForKubeconfig guards against the race between cluster-creation return
// and kubeconfig file materialization.
func (p *Probe) waitForKubeconfig(ctx context.Context) error {
	return wait.For(ctx, wait.Condition{
		Describe: fmt.Sprintf("kubeconfig %s to exist", p.config.KubeconfigPath),
		Timeout:  p.config.StageTimeout,
		Eval: func(_ context.Context) (bool, error) {
			_, err := os.Stat(p.config.KubeconfigPath)
			if err != nil {
				return false, nil //nolint:nilerr // absence is the polled-for state
			}

			return true, nil
		},
	}, wait.WithInterval(kubeconfigPollInterval), wait.WithWriter(p.writer))
}

// waitForControlPlaneRunning polls the engine until the control-plane
// container reports the running state.
func (p *Probe) waitForControlPlaneRunning(ctx context.Context) error {
	containerName := p.config.ClusterName + "-control-plane"

	interval := p.config.PollInterval
	if interval == 0 {
		interval = wait.DefaultInterval
	}

	return wait.For(ctx, wait.Condition{
		Describe: fmt.Sprintf("container %s running", containerName),
		Timeout:  p.config.StageTimeout,
		Eval: func(ctx context.Context) (bool, error) {
			inspect, err := docker.InspectContainerByName(ctx, p.engine, containerName)
			if err != nil {
				return false, err
			}

			return inspect.State != nil && inspect.State.Status == "running", nil
		},
	}, wait.WithInterval(interval), wait.WithWriter(p.writer))
}

// rewriteServerEndpoint resolves the externally reachable API address for the
// host platform and points the kubeconfig at it.
func (p *Probe) rewriteServerEndpoint(ctx context.Context) error {
	containerName := p.config.ClusterName + "-control-plane"

	inspect, err := docker.InspectContainerByName(ctx, p.engine, containerName)
	if err != nil {
		return err
	}

	endpoint, err := p.platform.APIServerEndpoint(inspect, p.config.NetworkName, p.config.APIPort)
	if err != nil {
		return fmt.Errorf("resolve api endpoint: %w", err)
	}

	serverURL := "https://" + endpoint

	err = k8s.SetServerURL(p.config.KubeconfigPath, p.config.ContextAlias, serverURL)
	if err != nil {
		return fmt.Errorf("rewrite server url: %w", err)
	}

	notify.Infof(p.writer, "cluster %s reachable at %s", p.config.ClusterName, serverURL)

	return nil
}
