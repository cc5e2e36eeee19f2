// Package wait implements the polling primitive every interaction uses to
// wait out page settling: probe immediately, then once per poll interval,
// until the probe succeeds, fails with a fatal kind, or the timeout elapses.
package wait

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/pagekit/internal/failure"
)

// Defaults used when an operation does not override its policy.
const (
	DefaultTimeout      = 20 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultProbeWindow  = 4 * time.Second
)

// ErrInvalidPolicy is returned for a policy whose interval is not strictly
// less than its timeout. It is a configuration error, never a failure kind.
var ErrInvalidPolicy = errors.New("wait: invalid policy")

// Transient is the ignore-set for element readiness probes: failures that are
// expected while a page is still rendering.
var Transient = failure.NewSet(
	failure.ElementNotFound,
	failure.ElementNotVisible,
	failure.ElementStale,
	failure.ElementNotInteractable,
)

// Policy is an immutable timeout, poll interval and ignore-set.
type Policy struct {
	timeout  time.Duration
	interval time.Duration
	ignored  failure.Set
}

// NewPolicy validates and builds a policy.
func NewPolicy(timeout, interval time.Duration, ignored ...failure.Kind) (Policy, error) {
	return newPolicy(timeout, interval, failure.NewSet(ignored...))
}

func newPolicy(timeout, interval time.Duration, ignored failure.Set) (Policy, error) {
	if interval <= 0 || timeout <= 0 {
		return Policy{}, fmt.Errorf("%w: timeout %s and interval %s must be positive", ErrInvalidPolicy, timeout, interval)
	}
	if interval >= timeout {
		return Policy{}, fmt.Errorf("%w: interval %s must be less than timeout %s", ErrInvalidPolicy, interval, timeout)
	}
	return Policy{timeout: timeout, interval: interval, ignored: ignored}, nil
}

// MustPolicy is NewPolicy for values known to be valid at compile time.
func MustPolicy(timeout, interval time.Duration, ignored ...failure.Kind) Policy {
	p, err := NewPolicy(timeout, interval, ignored...)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPolicy is 20s/500ms ignoring the transient element kinds.
func DefaultPolicy() Policy {
	return Policy{timeout: DefaultTimeout, interval: DefaultPollInterval, ignored: Transient}
}

func (p Policy) Timeout() time.Duration  { return p.timeout }
func (p Policy) Interval() time.Duration { return p.interval }
func (p Policy) Ignored() failure.Set    { return p.ignored }

// Ignores reports whether a failure of kind k means "not ready yet".
func (p Policy) Ignores(k failure.Kind) bool { return p.ignored.Has(k) }

// IsZero reports whether p was never built.
func (p Policy) IsZero() bool { return p.timeout == 0 }

// WithTimeout returns a copy with a different timeout. The interval is
// shrunk to a tenth of the timeout when it would otherwise be invalid.
func (p Policy) WithTimeout(timeout time.Duration) (Policy, error) {
	interval := p.interval
	if interval >= timeout {
		interval = timeout / 10
	}
	return newPolicy(timeout, interval, p.ignored)
}

// WithInterval returns a copy with a different poll interval.
func (p Policy) WithInterval(interval time.Duration) (Policy, error) {
	return newPolicy(p.timeout, interval, p.ignored)
}

// Ignoring returns a copy whose ignore-set also holds kinds.
func (p Policy) Ignoring(kinds ...failure.Kind) Policy {
	p.ignored = p.ignored.With(kinds...)
	return p
}

// MaxAttempts is the upper bound on probe invocations: ceil(timeout/interval)+1.
func (p Policy) MaxAttempts() int {
	if p.interval <= 0 {
		return 1
	}
	n := int(p.timeout / p.interval)
	if p.timeout%p.interval != 0 {
		n++
	}
	return n + 1
}

func (p Policy) String() string {
	return fmt.Sprintf("timeout=%s interval=%s ignore=%s", p.timeout, p.interval, p.ignored)
}
