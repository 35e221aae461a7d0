// Package wait provides a bounded polling loop over arbitrary boolean predicates.
//
// Conditions are first-class values: a human-readable description plus a
// predicate closure. The description drives progress and error messages so a
// failed wait names exactly what never happened.
package wait

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

// DefaultInterval is the pause between predicate evaluations.
const DefaultInterval = 1 * time.Second

// ErrConditionTimeout is returned when a condition does not become true within
// its timeout budget.
var ErrConditionTimeout = errors.New("condition not met before timeout")

// Condition describes an externally observable state to poll for.
//
// Eval must be side-effect-free with respect to orchestration state: it may
// query external systems but must not mutate them. Returning a non-nil error
// does not abort the poll; the last error is attached to the timeout failure
// to aid debugging without producing log noise on every iteration.
type Condition struct {
	// Describe is a human-readable label used in progress and error messages.
	Describe string
	// Eval reports whether the condition currently holds.
	Eval func(ctx context.Context) (bool, error)
	// Timeout bounds the poll. Zero means wait forever; use only where an
	// external bound is known to exist.
	Timeout time.Duration
}

type options struct {
	interval time.Duration
	writer   io.Writer
}

// Option customizes a single For invocation.
type Option func(*options)

// WithInterval overrides the pause between predicate evaluations.
// Non-positive intervals fall back to DefaultInterval.
func WithInterval(interval time.Duration) Option {
	return func(o *options) { o.interval = interval }
}

// WithWriter directs progress messages to the given writer.
func WithWriter(writer io.Writer) Option {
	return func(o *options) { o.writer = writer }
}

// For polls cond.Eval at a fixed interval until it returns true or the timeout
// budget is exhausted. One progress line is emitted at the start and one
// done/timeout line at the end; intermediate evaluations stay silent.
func For(ctx context.Context, cond Condition, opts ...Option) error {
	opt := options{interval: DefaultInterval, writer: io.Discard}
	for _, apply := range opts {
		apply(&opt)
	}

	// A zero interval would turn the poll into a busy loop against whatever
	// system Eval queries.
	if opt.interval <= 0 {
		opt.interval = DefaultInterval
	}

	if cond.Timeout > 0 {
		notify.Activityf(opt.writer, "waiting up to %s for %s", cond.Timeout, cond.Describe)
	} else {
		notify.Activityf(opt.writer, "waiting for %s", cond.Describe)
	}

	var deadline <-chan time.Time

	if cond.Timeout > 0 {
		timer := time.NewTimer(cond.Timeout)
		defer timer.Stop()

		deadline = timer.C
	}

	var lastErr error

	for {
		ok, err := cond.Eval(ctx)
		if err != nil {
			lastErr = err
		}

		if ok {
			notify.Successf(opt.writer, "%s", cond.Describe)

			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", cond.Describe, ctx.Err())
		case <-deadline:
			notify.Errorf(opt.writer, "timed out after %s waiting for %s", cond.Timeout, cond.Describe)

			return timeoutError(cond, lastErr)
		case <-time.After(opt.interval):
		}
	}
}

func timeoutError(cond Condition, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%w: %s after %s (last error: %w)",
			ErrConditionTimeout, cond.Describe, cond.Timeout, lastErr)
	}

	return fmt.Errorf("%w: %s after %s", ErrConditionTimeout, cond.Describe, cond.Timeout)
}
