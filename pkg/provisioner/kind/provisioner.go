// Package kindprovisioner creates and destroys ephemeral kind clusters.
//
// The bootstrap tool's own exit status is treated as best-effort only: it has
// been observed to report success while the control-plane container is not
// actually running. Creation is therefore verified against the container
// engine's process list, and the whole create sequence retries until the
// engine confirms a running control plane.
package kindprovisioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	kindcmd "sigs.k8s.io/kind/pkg/cmd"
	createcluster "sigs.k8s.io/kind/pkg/cmd/kind/create/cluster"
	deletecluster "sigs.k8s.io/kind/pkg/cmd/kind/delete/cluster"

	"github.com/runtime-copilot/cluster-harness/pkg/client/docker"
	"github.com/runtime-copilot/cluster-harness/pkg/runner"
	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

const (
	// defaultCreateAttempts caps the outer create-verify-retry loop.
	defaultCreateAttempts = 20
	// defaultDeleteAttempts caps teardown retries.
	defaultDeleteAttempts = 10
	// defaultSettleDelay gives the engine time to release resources after a
	// stale cluster is torn down before the next creation attempt.
	defaultSettleDelay = 10 * time.Second
	// defaultDeleteDelay paces teardown re-checks.
	defaultDeleteDelay = 1 * time.Second
	// controlPlaneSuffix is appended by kind to the cluster name to form the
	// control-plane container name.
	controlPlaneSuffix = "-control-plane"
)

// ErrClusterCreateFailed is returned when no creation attempt produced a
// running control-plane container.
var ErrClusterCreateFailed = errors.New("cluster creation failed")

// ClusterSpec describes one ephemeral cluster. The kubeconfig file at
// KubeconfigPath is owned exclusively by this provisioner: it is deleted and
// regenerated on every creation attempt.
type ClusterSpec struct {
	// Name uniquely identifies the cluster within a test run.
	Name string
	// KubeconfigPath is where the bootstrap tool writes cluster credentials.
	KubeconfigPath string
	// NodeImage is the node image reference to boot.
	NodeImage string
	// ConfigPath optionally points at a bootstrap config file.
	ConfigPath string
}

// ControlPlaneContainer returns the engine-visible name of the cluster's
// control-plane container.
func (s ClusterSpec) ControlPlaneContainer() string {
	return s.Name + controlPlaneSuffix
}

// Provisioner drives the bootstrap tool and verifies results against the
// container engine.
type Provisioner struct {
	spec   ClusterSpec
	runner runner.CommandRunner
	engine docker.ContainerLister
	writer io.Writer

	createAttempts int
	deleteAttempts int
	settleDelay    time.Duration
	deleteDelay    time.Duration
}

// Option customizes a Provisioner.
type Option func(*Provisioner)

// WithAttempts overrides the create and delete attempt budgets.
func WithAttempts(create, del int) Option {
	return func(p *Provisioner) {
		p.createAttempts = create
		p.deleteAttempts = del
	}
}

// WithDelays overrides the settle and delete-recheck delays.
func WithDelays(settle, del time.Duration) Option {
	return func(p *Provisioner) {
		p.settleDelay = settle
		p.deleteDelay = del
	}
}

// NewProvisioner constructs a Provisioner with the default retry budgets.
func NewProvisioner(
	spec ClusterSpec,
	commandRunner runner.CommandRunner,
	engine docker.ContainerLister,
	writer io.Writer,
	opts ...Option,
) *Provisioner {
	if writer == nil {
		writer = io.Discard
	}

	provisioner := &Provisioner{
		spec:           spec,
		runner:         commandRunner,
		engine:         engine,
		writer:         writer,
		createAttempts: defaultCreateAttempts,
		deleteAttempts: defaultDeleteAttempts,
		settleDelay:    defaultSettleDelay,
		deleteDelay:    defaultDeleteDelay,
	}

	for _, apply := range opts {
		apply(provisioner)
	}

	return provisioner
}

// Create provisions the cluster, retrying the whole create sequence until the
// container engine reports a running control-plane container.
//
// Each attempt starts from a clean slate: any stale kubeconfig and any stale
// same-named cluster are removed first, followed by a settle delay. The
// bootstrap tool is then invoked best-effort, and success is decided solely by
// the engine's process list. Create does not wait for control-plane readiness;
// that is the readiness probe's job.
func (p *Provisioner) Create(ctx context.Context) error {
	for attempt := 1; attempt <= p.createAttempts; attempt++ {
		notify.Activityf(p.writer, "creating cluster %s (attempt %d/%d)",
			p.spec.Name, attempt, p.createAttempts)

		err := p.cleanupStale(ctx)
		if err != nil {
			return err
		}

		createErr := p.runCreate(ctx)
		if createErr != nil {
			// Tolerated: verification below is the real success signal.
			notify.Warningf(p.writer, "bootstrap tool reported: %v", createErr)
		}

		running, err := docker.IsContainerRunning(ctx, p.engine, p.spec.ControlPlaneContainer())
		if err != nil {
			return fmt.Errorf("verify cluster %s: %w", p.spec.Name, err)
		}

		if running {
			notify.Successf(p.writer, "cluster %s control plane is up", p.spec.Name)

			return nil
		}

		notify.Warningf(p.writer, "control-plane container %s not running, retrying",
			p.spec.ControlPlaneContainer())
	}

	return fmt.Errorf("%w: %s after %d attempts",
		ErrClusterCreateFailed, p.spec.Name, p.createAttempts)
}

// Delete tears the cluster down, re-invoking the bootstrap tool until the
// engine reports no matching container. Teardown failures are logged rather
// than escalated: a subsequent Create retries teardown anyway.
func (p *Provisioner) Delete(ctx context.Context) error {
	for attempt := 1; attempt <= p.deleteAttempts; attempt++ {
		deleteErr := p.runDelete(ctx)
		if deleteErr != nil {
			// "already deleted" and transient engine errors both land here.
			notify.Warningf(p.writer, "delete cluster %s: %v", p.spec.Name, deleteErr)
		}

		_, found, err := docker.FindContainerByName(ctx, p.engine, p.spec.ControlPlaneContainer())
		if err != nil {
			return fmt.Errorf("verify teardown of %s: %w", p.spec.Name, err)
		}

		if !found {
			notify.Successf(p.writer, "cluster %s deleted", p.spec.Name)

			return nil
		}

		if sleepErr := sleep(ctx, p.deleteDelay); sleepErr != nil {
			return fmt.Errorf("deleting cluster %s: %w", p.spec.Name, sleepErr)
		}
	}

	notify.Warningf(p.writer, "cluster %s teardown not confirmed after %d attempts",
		p.spec.Name, p.deleteAttempts)

	return nil
}

// cleanupStale removes the kubeconfig file and any stale same-named cluster,
// then waits for the teardown to settle.
func (p *Provisioner) cleanupStale(ctx context.Context) error {
	err := os.Remove(p.spec.KubeconfigPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale kubeconfig %s: %w", p.spec.KubeconfigPath, err)
	}

	deleteErr := p.runDelete(ctx)
	if deleteErr != nil {
		notify.Warningf(p.writer, "stale cluster cleanup: %v", deleteErr)
	}

	return sleep(ctx, p.settleDelay)
}

// runCreate invokes the bootstrap tool's create-cluster command.
func (p *Provisioner) runCreate(ctx context.Context) error {
	logger := &streamLogger{writer: p.writer}
	streams := kindcmd.IOStreams{Out: p.writer, ErrOut: p.writer}

	cmd := createcluster.NewCommand(logger, streams)

	args := []string{
		"--name", p.spec.Name,
		"--kubeconfig", p.spec.KubeconfigPath,
		"--image", p.spec.NodeImage,
	}
	if p.spec.ConfigPath != "" {
		args = append(args, "--config", p.spec.ConfigPath)
	}

	_, err := p.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("create kind cluster: %w", err)
	}

	return nil
}

// runDelete invokes the bootstrap tool's delete-cluster command.
func (p *Provisioner) runDelete(ctx context.Context) error {
	logger := &streamLogger{writer: p.writer}
	streams := kindcmd.IOStreams{Out: p.writer, ErrOut: p.writer}

	cmd := deletecluster.NewCommand(logger, streams)

	args := []string{
		"--name", p.spec.Name,
		"--kubeconfig", p.spec.KubeconfigPath,
	}

	_, err := p.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("delete kind cluster: %w", err)
	}

	return nil
}

// sleep pauses for the given duration, aborting early if ctx is cancelled.
func sleep(ctx context.Context, duration time.Duration) error {
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
