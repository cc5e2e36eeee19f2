package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/failure"
)

// Probe performs one readiness check. A nil error means the condition holds.
type Probe func(ctx context.Context) error

// TimeoutError is returned when the policy's timeout elapses before the
// probe succeeds. Last holds the final absorbed failure, if any.
type TimeoutError struct {
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("condition not met after %s (%d attempts, timeout %s)", e.Elapsed, e.Attempts, e.Timeout)
	if e.Last != nil {
		msg += ": last failure: " + e.Last.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Last }

func (e *TimeoutError) FailureKind() failure.Kind { return failure.Timeout }

// InterruptedError is returned when the caller's context ends mid-wait.
type InterruptedError struct {
	Attempts int
	Err      error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("wait interrupted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *InterruptedError) Unwrap() error { return e.Err }

func (e *InterruptedError) FailureKind() failure.Kind { return failure.InterruptedWait }

// errNotYet marks a boolean probe that answered false.
var errNotYet = errors.New("condition not yet true")

// Waiter runs probes under a Policy. It holds no per-call state, so one
// Waiter can serve many workers; each Await runs entirely on its caller.
type Waiter struct {
	clock  Clock
	logger *zap.Logger
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(w *Waiter) { w.clock = c }
}

// NewWaiter returns a Waiter using the system clock.
func NewWaiter(logger *zap.Logger, opts ...Option) *Waiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Waiter{clock: SystemClock{}, logger: logger.Named("wait")}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Clock returns the waiter's time source.
func (w *Waiter) Clock() Clock { return w.clock }

// Await invokes probe immediately and then every policy interval until it
// returns nil, returns a failure whose kind the policy does not ignore, or
// the timeout elapses. Fatal failures are returned unchanged.
func (w *Waiter) Await(ctx context.Context, policy Policy, probe Probe) error {
	if policy.IsZero() {
		policy = DefaultPolicy()
	}

	start := w.clock.Now()
	deadline := start.Add(policy.timeout)
	attempts := 0
	var last error

	for {
		if err := ctx.Err(); err != nil {
			return &InterruptedError{Attempts: attempts, Err: err}
		}

		attempts++
		err := probe(ctx)
		if err == nil {
			w.logger.Debug("Condition met",
				zap.Int("attempts", attempts),
				zap.Duration("elapsed", w.clock.Now().Sub(start)))
			return nil
		}
		if !errors.Is(err, errNotYet) {
			if kind := failure.Classify(err); !policy.Ignores(kind) {
				return err
			}
		}
		last = err

		now := w.clock.Now()
		if !now.Before(deadline) {
			if errors.Is(last, errNotYet) {
				last = nil
			}
			w.logger.Debug("Condition timed out",
				zap.Int("attempts", attempts),
				zap.Duration("elapsed", now.Sub(start)),
				zap.Stringer("policy", policy))
			return &TimeoutError{Timeout: policy.timeout, Elapsed: now.Sub(start), Attempts: attempts, Last: last}
		}

		// The last sleep stops at the deadline.
		if err := w.clock.Sleep(ctx, min(policy.interval, deadline.Sub(now))); err != nil {
			return &InterruptedError{Attempts: attempts, Err: err}
		}
	}
}

// AwaitTrue polls a boolean probe. A false answer is always "not ready".
func (w *Waiter) AwaitTrue(ctx context.Context, policy Policy, probe func(ctx context.Context) (bool, error)) error {
	return w.Await(ctx, policy, func(ctx context.Context) error {
		ok, err := probe(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errNotYet
		}
		return nil
	})
}

// Until polls a value-producing probe and returns the first value obtained
// without error.
func Until[T any](ctx context.Context, w *Waiter, policy Policy, probe func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := w.Await(ctx, policy, func(ctx context.Context) error {
		v, err := probe(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
