// Package retry executes flaky external operations until they are confirmed
// stable.
//
// A single success observation is not trustworthy for resources that flap
// between ready/error/ready during startup (pods under a StatefulSet or
// Deployment are the usual offenders). Execute therefore requires a streak of
// consecutive successes before declaring the operation healthy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

// ErrRetryExhausted is returned when an operation never reached the required
// success streak within its attempt budget.
var ErrRetryExhausted = errors.New("retry budget exhausted")

// Policy bounds an Execute call. Attempts and the success streak are tracked
// independently: a failure resets the streak to zero but still consumes one
// attempt from the budget.
type Policy struct {
	// MaxAttempts is the total attempt budget, counting failures and successes.
	MaxAttempts int
	// RequiredSuccesses is the consecutive-success streak needed to declare
	// the operation stable.
	RequiredSuccesses int
	// FailureDelay is the pause after a failed attempt.
	FailureDelay time.Duration
	// SuccessDelay is the pause after a successful attempt that has not yet
	// completed the streak. It is longer than FailureDelay to avoid hammering
	// a healthy-but-slow-converging resource.
	SuccessDelay time.Duration
}

// DefaultPolicy returns the policy used across the harness: 20 attempts,
// 3 consecutive successes, 1s after a failure, 5s after a success.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       20,
		RequiredSuccesses: 3,
		FailureDelay:      1 * time.Second,
		SuccessDelay:      5 * time.Second,
	}
}

type options struct {
	writer io.Writer
}

// Option customizes a single Execute invocation.
type Option func(*options)

// WithWriter directs progress messages to the given writer.
func WithWriter(writer io.Writer) Option {
	return func(o *options) { o.writer = writer }
}

// Execute runs fn until it succeeds policy.RequiredSuccesses times in a row or
// the attempt budget is exhausted. Failures during polling are absorbed
// silently; if the budget runs out, fn is executed once more so its failure
// output is visible, and the result is wrapped in ErrRetryExhausted.
func Execute(
	ctx context.Context,
	policy Policy,
	label string,
	fn func(ctx context.Context) error,
	opts ...Option,
) error {
	opt := options{writer: io.Discard}
	for _, apply := range opts {
		apply(&opt)
	}

	notify.Activityf(opt.writer, "confirming %s (%d consecutive successes required)",
		label, policy.RequiredSuccesses)

	streak := 0

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err != nil {
			streak = 0
		} else {
			streak++
			if streak >= policy.RequiredSuccesses {
				notify.Successf(opt.writer, "%s confirmed after %d attempts", label, attempt)

				return nil
			}
		}

		delay := policy.FailureDelay
		if err == nil {
			delay = policy.SuccessDelay
		}

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("confirming %s: %w", label, sleepErr)
		}
	}

	// Final diagnostic run: the polling attempts swallowed their output, so
	// execute once more and surface whatever it reports.
	finalErr := fn(ctx)

	notify.Errorf(opt.writer, "%s never reached %d consecutive successes in %d attempts",
		label, policy.RequiredSuccesses, policy.MaxAttempts)

	if finalErr != nil {
		return fmt.Errorf("%w: %s after %d attempts: %w",
			ErrRetryExhausted, label, policy.MaxAttempts, finalErr)
	}

	return fmt.Errorf("%w: %s after %d attempts", ErrRetryExhausted, label, policy.MaxAttempts)
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
