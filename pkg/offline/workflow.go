package offline

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/runtime-copilot/cluster-harness/pkg/client/docker"
	kindprovisioner "github.com/runtime-copilot/cluster-harness/pkg/provisioner/kind"
	"github.com/runtime-copilot/cluster-harness/pkg/retry"
	"github.com/runtime-copilot/cluster-harness/pkg/runner"
	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

const (
	// syncerBinary is the external charts-syncer executable used to move the
	// chart bundle between the upstream repository and the local registry.
	syncerBinary = "charts-syncer"

	// registryNodePort is the port the registry image listens on inside its
	// container; cluster nodes on the shared network reach it directly.
	registryNodePort = 5000

	// syncerMaxAttempts bounds re-invocations of the syncer when it fails on
	// a transient network error. Non-transient failures abort immediately.
	syncerMaxAttempts = 5
	// syncerBaseDelay and syncerMaxDelay pace transient-failure retries with
	// exponential backoff.
	syncerBaseDelay = 1 * time.Second
	syncerMaxDelay  = 30 * time.Second

	defaultChartName    = "runtime-copilot"
	defaultRegistryName = "harness-registry"
	defaultRegistryPort = 5000
	defaultNetworkName  = "kind"
	defaultBundleDir    = "/tmp/bundle"
)

// Inputs carries everything the workflow needs up front. Steps never read
// shared mutable state; anything a later step needs is derived from Inputs.
type Inputs struct {
	// ChartRepoURL is the upstream Helm repository holding the chart.
	ChartRepoURL string
	// ChartRepoPassword authenticates against the upstream repository.
	ChartRepoPassword string
	// ChartName is the chart to sync. Defaults to "runtime-copilot".
	ChartName string
	// ChartVersion is the exact chart version to sync and unpack.
	ChartVersion string
	// BundleDir is where charts-syncer writes the intermediate bundle and
	// where the unpacked chart ends up. Defaults to /tmp/bundle.
	BundleDir string
	// WorkDir holds rendered charts-syncer configs. Defaults to BundleDir.
	WorkDir string
	// ClusterName is the target kind cluster whose runtime gets reconfigured.
	ClusterName string
	// RegistryName is the local registry container name. Defaults to
	// "harness-registry".
	RegistryName string
	// RegistryPort is the host port the registry publishes. Defaults to 5000.
	RegistryPort int
	// NetworkName is the container network shared by the registry and the
	// cluster nodes. Defaults to "kind".
	NetworkName string
}

func (in Inputs) withDefaults() Inputs {
	if in.ChartName == "" {
		in.ChartName = defaultChartName
	}

	if in.RegistryName == "" {
		in.RegistryName = defaultRegistryName
	}

	if in.RegistryPort == 0 {
		in.RegistryPort = defaultRegistryPort
	}

	if in.NetworkName == "" {
		in.NetworkName = defaultNetworkName
	}

	if in.BundleDir == "" {
		in.BundleDir = defaultBundleDir
	}

	if in.WorkDir == "" {
		in.WorkDir = in.BundleDir
	}

	return in
}

// bundleBaseName is the file stem charts-syncer gives the intermediate
// bundle, e.g. "runtime-copilot_0.0.5.bundle".
func (in Inputs) bundleBaseName() string {
	return fmt.Sprintf("%s_%s.bundle", in.ChartName, in.ChartVersion)
}

// nodeEndpoint is the registry address as seen from cluster nodes on the
// shared container network.
func (in Inputs) nodeEndpoint() string {
	return net.JoinHostPort(in.RegistryName, strconv.Itoa(registryNodePort))
}

// hostEndpoint is the registry address as seen from the host, where
// charts-syncer pushes.
func (in Inputs) hostEndpoint() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(in.RegistryPort))
}

// Engine is the slice of the container engine API the workflow touches.
type Engine interface {
	docker.Execer
	docker.FileCopier
}

// RegistryStarter starts a local registry container.
type RegistryStarter interface {
	Start(ctx context.Context, config docker.RegistryConfig) error
}

// Workflow runs the offline package pipeline as an ordered sequence of
// steps, aborting on the first failure.
type Workflow struct {
	inputs   Inputs
	engine   Engine
	registry RegistryStarter
	syncer   runner.ExecRunner
	writer   io.Writer

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// NewWorkflow assembles the workflow from its collaborators. Zero-valued
// optional inputs get defaults.
func NewWorkflow(
	inputs Inputs,
	engine Engine,
	registry RegistryStarter,
	syncer runner.ExecRunner,
	writer io.Writer,
) *Workflow {
	if writer == nil {
		writer = io.Discard
	}

	return &Workflow{
		inputs:         inputs.withDefaults(),
		engine:         engine,
		registry:       registry,
		syncer:         syncer,
		writer:         writer,
		retryBaseDelay: syncerBaseDelay,
		retryMaxDelay:  syncerMaxDelay,
	}
}

type workflowStep struct {
	name string
	run  func(ctx context.Context) error
}

// Run executes the pipeline: sync the chart bundle from the upstream
// repository, start the local registry, point the cluster's containerd at
// it, load the bundle into the registry, and unpack the bundle on disk.
func (w *Workflow) Run(ctx context.Context) error {
	steps := []workflowStep{
		{name: "sync chart bundle", run: w.syncChartBundle},
		{name: "start local registry", run: w.startRegistry},
		{name: "configure node runtime", run: w.configureNodeRuntime},
		{name: "load chart into registry", run: w.loadChartIntoRegistry},
		{name: "unpack chart bundle", run: w.unpackChartBundle},
	}

	for i, step := range steps {
		notify.Activityf(w.writer, "offline step %d/%d: %s", i+1, len(steps), step.name)

		err := step.run(ctx)
		if err != nil {
			notify.Errorf(w.writer, "offline step %q failed: %v", step.name, err)

			return fmt.Errorf("offline step %q: %w", step.name, err)
		}

		notify.Successf(w.writer, "offline step %q completed", step.name)
	}

	return nil
}

func (w *Workflow) syncChartBundle(ctx context.Context) error {
	config, err := renderDownloadConfig(w.inputs)
	if err != nil {
		return err
	}

	return w.runSyncer(ctx, "sync-download.yaml", config)
}

func (w *Workflow) startRegistry(ctx context.Context) error {
	return w.registry.Start(ctx, docker.RegistryConfig{
		Name:        w.inputs.RegistryName,
		Port:        w.inputs.RegistryPort,
		NetworkName: w.inputs.NetworkName,
	})
}

func (w *Workflow) configureNodeRuntime(ctx context.Context) error {
	controlPlane := kindprovisioner.ClusterSpec{Name: w.inputs.ClusterName}.ControlPlaneContainer()
	endpoint := w.inputs.nodeEndpoint()
	hostsDir := "/etc/containerd/certs.d/" + endpoint
	hostsPath := hostsDir + "/hosts.toml"

	_, err := docker.ExecInContainer(ctx, w.engine, controlPlane, []string{"mkdir", "-p", hostsDir})
	if err != nil {
		return err
	}

	content := []byte(renderHostsConfig(endpoint))

	err = docker.CopyFileToContainer(ctx, w.engine, controlPlane, hostsPath, content, 0o644)
	if err != nil {
		return err
	}

	_, err = docker.ExecInContainer(
		ctx,
		w.engine,
		controlPlane,
		[]string{"systemctl", "restart", "containerd"},
	)

	return err
}

func (w *Workflow) loadChartIntoRegistry(ctx context.Context) error {
	config, err := renderLoadConfig(w.inputs, w.inputs.hostEndpoint())
	if err != nil {
		return err
	}

	return w.runSyncer(ctx, "sync-load.yaml", config)
}

func (w *Workflow) unpackChartBundle(_ context.Context) error {
	archivePath := filepath.Join(w.inputs.BundleDir, w.inputs.bundleBaseName()+".tar")
	destDir := filepath.Join(w.inputs.BundleDir, w.inputs.bundleBaseName())

	err := unpackBundle(archivePath, destDir)
	if err != nil {
		return err
	}

	chart, err := loadChart(destDir)
	if err != nil {
		return err
	}

	notify.Infof(w.writer, "unpacked chart %s %s into %s", chart.Name(), chart.Metadata.Version, destDir)

	return nil
}

// runSyncer writes a rendered charts-syncer config into the work directory
// and invokes the external binary against it. The syncer talks to a remote
// chart repository, so invocations that fail with a transient network error
// are re-run with exponential backoff; any other failure aborts immediately.
func (w *Workflow) runSyncer(ctx context.Context, configName string, config []byte) error {
	err := os.MkdirAll(w.inputs.WorkDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	configPath := filepath.Join(w.inputs.WorkDir, configName)

	err = os.WriteFile(configPath, config, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write syncer config: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= syncerMaxAttempts; attempt++ {
		_, runErr := w.syncer.Run(ctx, syncerBinary, "sync", "--config", configPath)
		if runErr == nil {
			return nil
		}

		if !retry.IsTransient(runErr) {
			return fmt.Errorf("%s failed: %w", syncerBinary, runErr)
		}

		lastErr = runErr
		notify.Warningf(w.writer, "%s transient failure (attempt %d/%d): %v",
			syncerBinary, attempt, syncerMaxAttempts, runErr)

		if attempt < syncerMaxAttempts {
			delay := retry.ExponentialDelay(attempt, w.retryBaseDelay, w.retryMaxDelay)
			if sleepErr := sleepBetween(ctx, delay); sleepErr != nil {
				return fmt.Errorf("%s retry interrupted: %w", syncerBinary, sleepErr)
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", syncerBinary, syncerMaxAttempts, lastErr)
}

// sleepBetween pauses for the given duration, aborting early if ctx is
// cancelled.
func sleepBetween(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
