// internal/interaction/interaction.go
// Package interaction is the public surface Page Objects drive the browser
// through. Every operation resolves the calling worker's session from the
// registry, waits out page settling with the polling engine where the
// operation needs a ready element, performs a single backend action, and on
// failure surfaces a classified *failure.Error whose report has already been
// handed to the diagnostic sink.
//
// Probing operations (IsDisplayed, IsExists, ButtonIsEnabled and their
// windowed variants) are the exception: they answer false instead of failing.
package interaction

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/registry"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/failure"
	"github.com/xkilldash9x/pagekit/internal/inputs"
	"github.com/xkilldash9x/pagekit/internal/wait"
)

// DefaultKeystrokeInterval paces WriteSlowly when no interval is configured.
const DefaultKeystrokeInterval = 150 * time.Millisecond

// Sessions hands out the session owned by a worker.
type Sessions interface {
	Acquire(ctx context.Context, w registry.WorkerID) (*registry.Session, error)
}

// Sink receives the report of every failed operation.
type Sink interface {
	Emit(r failure.DiagnosticReport)
}

type nopSink struct{}

func (nopSink) Emit(failure.DiagnosticReport) {}

// -- Structs and Constructors --

// Interactions implements every operation for one worker. It holds no
// per-call state, but it is not meant to be shared across workers: the
// session it resolves belongs to its worker alone.
type Interactions struct {
	sessions Sessions
	worker   registry.WorkerID
	waiter   *wait.Waiter
	sink     Sink
	inputs   *inputs.Store
	logger   *zap.Logger
	timing   config.WaitConfig
	rng      *lockedRand
}

// Option configures Interactions.
type Option func(*Interactions)

// WithLogger sets the logger. It is named "interaction".
func WithLogger(logger *zap.Logger) Option {
	return func(i *Interactions) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithWaiter replaces the polling engine, typically to inject a clock.
func WithWaiter(w *wait.Waiter) Option {
	return func(i *Interactions) { i.waiter = w }
}

// WithSink sets where failure reports are emitted.
func WithSink(s Sink) Option {
	return func(i *Interactions) { i.sink = s }
}

// WithInputs sets the store the input snapshot of reports is taken from.
func WithInputs(s *inputs.Store) Option {
	return func(i *Interactions) { i.inputs = s }
}

// WithTiming overrides the default wait windows. Zero fields keep their
// defaults.
func WithTiming(t config.WaitConfig) Option {
	return func(i *Interactions) {
		if t.Timeout > 0 {
			i.timing.Timeout = t.Timeout
		}
		if t.PollInterval > 0 {
			i.timing.PollInterval = t.PollInterval
		}
		if t.ProbeTimeout > 0 {
			i.timing.ProbeTimeout = t.ProbeTimeout
		}
		if t.KeystrokeInterval > 0 {
			i.timing.KeystrokeInterval = t.KeystrokeInterval
		}
	}
}

// WithRand sets the source RandomClickList draws from.
func WithRand(r *rand.Rand) Option {
	return func(i *Interactions) {
		if r != nil {
			i.rng = &lockedRand{r: r}
		}
	}
}

// New binds the operations to worker's session in sessions. An empty worker
// defers to the worker carried by each call's context (registry.WithWorker).
func New(sessions Sessions, worker registry.WorkerID, opts ...Option) *Interactions {
	i := &Interactions{
		sessions: sessions,
		worker:   worker,
		sink:     nopSink{},
		logger:   zap.NewNop(),
		timing: config.WaitConfig{
			Timeout:           wait.DefaultTimeout,
			PollInterval:      wait.DefaultPollInterval,
			ProbeTimeout:      wait.DefaultProbeWindow,
			KeystrokeInterval: DefaultKeystrokeInterval,
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.Named("interaction")
	if i.waiter == nil {
		i.waiter = wait.NewWaiter(i.logger)
	}
	if i.sink == nil {
		i.sink = nopSink{}
	}
	if i.rng == nil {
		i.rng = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return i
}

// lockedRand serialises draws: copies made by ForWorker, and an unbound
// Interactions serving several workers, all draw from one source.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// ForWorker returns a copy bound to another worker, sharing everything else.
func (i *Interactions) ForWorker(w registry.WorkerID) *Interactions {
	c := *i
	c.worker = w
	return &c
}

// Worker returns the bound worker, or "" when it comes from the context.
func (i *Interactions) Worker() registry.WorkerID { return i.worker }

// Logger returns the interaction logger.
func (i *Interactions) Logger() *zap.Logger { return i.logger }

// -- Session and failure plumbing --

var errNoWorker = errors.New("interaction: no worker bound and none in context")

func (i *Interactions) workerFor(ctx context.Context) (registry.WorkerID, error) {
	if i.worker != "" {
		return i.worker, nil
	}
	if w, ok := registry.WorkerFrom(ctx); ok {
		return w, nil
	}
	return "", errNoWorker
}

// session resolves the calling worker's driver, provisioning it on first use.
func (i *Interactions) session(ctx context.Context) (driver.Driver, error) {
	w, err := i.workerFor(ctx)
	if err != nil {
		return nil, err
	}
	s, err := i.sessions.Acquire(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.Driver(), nil
}

// snapshot renders the worker's current test data for a report.
func (i *Interactions) snapshot(ctx context.Context) string {
	if i.inputs == nil {
		return ""
	}
	w, err := i.workerFor(ctx)
	if err != nil {
		return ""
	}
	return i.inputs.Snapshot(w)
}

// fail classifies err, emits its report and returns the surfaced error.
// Errors already carrying a report keep it. Configuration errors are not
// failures and pass through unreported.
func (i *Interactions) fail(ctx context.Context, op, target string, err error) error {
	if errors.Is(err, wait.ErrInvalidPolicy) || errors.Is(err, errNoWorker) {
		return err
	}
	var fe *failure.Error
	if !errors.As(err, &fe) {
		fe = failure.New(op, target, i.snapshot(ctx), err)
	}
	i.emit(fe)
	return fe
}

// failMissing reports a wait that ran out while its last absorbed failure
// was still of kind as that kind, so a dialog or frame that never showed up
// says so rather than reading as a bare timeout.
func (i *Interactions) failMissing(ctx context.Context, kind failure.Kind, op, target string, err error) error {
	var te *wait.TimeoutError
	if errors.As(err, &te) && te.Last != nil && failure.Classify(te.Last) == kind {
		fe := failure.Wrap(kind, op, target, i.snapshot(ctx), err)
		i.emit(fe)
		return fe
	}
	return i.fail(ctx, op, target, err)
}

// failf reports a failure the operation detected itself.
func (i *Interactions) failf(ctx context.Context, kind failure.Kind, op, target, format string, args ...any) error {
	fe := failure.Newf(kind, op, target, i.snapshot(ctx), format, args...)
	i.emit(fe)
	return fe
}

func (i *Interactions) emit(fe *failure.Error) {
	i.logger.Debug("Operation failed",
		zap.String("operation", fe.Report.Operation),
		zap.String("target", fe.Report.Target),
		zap.Stringer("kind", fe.Kind))
	i.sink.Emit(fe.Report)
}

// -- Policies and readiness --

// policy builds an element readiness policy for timeout at the configured
// poll interval. A timeout not above the interval is a configuration error.
func (i *Interactions) policy(timeout time.Duration) (wait.Policy, error) {
	return wait.NewPolicy(timeout, i.timing.PollInterval, wait.Transient.Kinds()...)
}

// ready waits until the first element matching loc is displayed and enabled,
// then returns it.
func (i *Interactions) ready(ctx context.Context, d driver.Driver, policy wait.Policy, loc driver.Locator) (driver.Element, error) {
	return i.await(ctx, policy, loc, readyCheck(d, loc))
}

// present waits until loc matches at least one element.
func (i *Interactions) present(ctx context.Context, d driver.Driver, policy wait.Policy, loc driver.Locator) (driver.Element, error) {
	return i.await(ctx, policy, loc, presentCheck(d, loc))
}

// readyCheck looks once for a displayed and enabled element matching loc.
func readyCheck(d driver.Driver, loc driver.Locator) func(context.Context) (driver.Element, error) {
	return func(ctx context.Context) (driver.Element, error) {
		el, err := driver.First(ctx, d, loc)
		if err != nil {
			return nil, err
		}
		ok, err := el.IsDisplayed(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, driver.Errorf(driver.CodeElementNotVisible, "await", "%s is not displayed", loc)
		}
		if ok, err = el.IsEnabled(ctx); err != nil {
			return nil, err
		} else if !ok {
			return nil, driver.Errorf(driver.CodeElementNotInteractable, "await", "%s is disabled", loc)
		}
		return el, nil
	}
}

// presentCheck looks once for any element matching loc.
func presentCheck(d driver.Driver, loc driver.Locator) func(context.Context) (driver.Element, error) {
	return func(ctx context.Context) (driver.Element, error) {
		return driver.First(ctx, d, loc)
	}
}

func (i *Interactions) await(ctx context.Context, policy wait.Policy, loc driver.Locator, probe func(context.Context) (driver.Element, error)) (driver.Element, error) {
	start := i.waiter.Clock().Now()
	el, err := wait.Until(ctx, i.waiter, policy, probe)
	i.logger.Debug("Await - elapsed",
		zap.Stringer("locator", loc),
		zap.Duration("elapsed", i.waiter.Clock().Now().Sub(start)),
		zap.Bool("ready", err == nil))
	return el, err
}

// readyDefault resolves the session and waits for loc under the default
// readiness policy.
func (i *Interactions) readyDefault(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	d, err := i.session(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := i.policy(i.timing.Timeout)
	if err != nil {
		return nil, err
	}
	return i.ready(ctx, d, policy, loc)
}

// presentDefault is readyDefault for operations that only need the element
// to exist.
func (i *Interactions) presentDefault(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	d, err := i.session(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := i.policy(i.timing.Timeout)
	if err != nil {
		return nil, err
	}
	return i.present(ctx, d, policy, loc)
}
