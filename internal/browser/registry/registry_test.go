package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/provision"
	"github.com/xkilldash9x/pagekit/internal/browser/registry"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/failure"
	"github.com/xkilldash9x/pagekit/internal/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProvisioner hands out a fresh mock driver per call.
type fakeProvisioner struct {
	calls   atomic.Int32
	delay   time.Duration
	err     error
	quitErr error
	// gate, when set, holds provisioning until closed or ctx ends.
	gate    chan struct{}
	started chan struct{}
	once    sync.Once

	mu      sync.Mutex
	drivers []*mocks.MockDriver
}

func (p *fakeProvisioner) Provision(ctx context.Context, cfg config.Config) (driver.Driver, error) {
	p.calls.Add(1)
	if p.started != nil {
		p.once.Do(func() { close(p.started) })
	}
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	d := new(mocks.MockDriver)
	d.On("Quit", mock.Anything).Return(p.quitErr)
	p.mu.Lock()
	p.drivers = append(p.drivers, d)
	p.mu.Unlock()
	return d, nil
}

func newRegistry(t *testing.T, prov *fakeProvisioner) *registry.Registry {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Headless = true
	return registry.New(zaptest.NewLogger(t), cfg, prov)
}

func TestAcquire_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvisioner{}
	r := newRegistry(t, prov)

	w := registry.NewWorkerID()
	s1, err := r.Acquire(ctx, w)
	require.NoError(t, err)
	s2, err := r.Acquire(ctx, w)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, int32(1), prov.calls.Load())
	assert.Equal(t, registry.Active, s1.State())
	assert.Equal(t, w, s1.Worker)
	assert.Equal(t, provision.ModeHeadless, s1.Mode)
	assert.Equal(t, config.Chrome, s1.Browser)
	assert.NotEmpty(t, s1.ID)
}

func TestAcquire_ConcurrentFirstAccess(t *testing.T) {
	prov := &fakeProvisioner{delay: 50 * time.Millisecond}
	r := newRegistry(t, prov)
	w := registry.WorkerID("worker-1")

	const callers = 16
	sessions := make([]*registry.Session, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			s, err := r.Acquire(context.Background(), w)
			sessions[i] = s
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), prov.calls.Load(), "at most one session per worker")
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
	assert.Equal(t, 1, r.Len())
}

func TestAcquire_CallerCancelDoesNotFailOthers(t *testing.T) {
	prov := &fakeProvisioner{gate: make(chan struct{}), started: make(chan struct{})}
	r := newRegistry(t, prov)
	w := registry.WorkerID("worker-1")

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Acquire(first, w)
		firstErr <- err
	}()
	<-prov.started
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		s   *registry.Session
		err error
	}
	second := make(chan result, 1)
	go func() {
		s, err := r.Acquire(context.Background(), w)
		second <- result{s, err}
	}()
	close(prov.gate)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, registry.Active, got.s.State())
	assert.Equal(t, int32(1), prov.calls.Load(), "the abandoned provisioning is the one reused")
	assert.Equal(t, 1, r.Len())
}

func TestAcquire_Isolation(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvisioner{delay: 10 * time.Millisecond}
	r := newRegistry(t, prov)
	w1, w2 := registry.WorkerID("w1"), registry.WorkerID("w2")

	var s1, s2 *registry.Session
	var g errgroup.Group
	g.Go(func() (err error) { s1, err = r.Acquire(ctx, w1); return err })
	g.Go(func() (err error) { s2, err = r.Acquire(ctx, w2); return err })
	require.NoError(t, g.Wait())

	require.NotSame(t, s1, s2)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.NotSame(t, s1.Driver(), s2.Driver())

	require.NoError(t, r.Release(ctx, w1))
	assert.Equal(t, registry.Terminated, s1.State())
	assert.Equal(t, registry.Active, s2.State())
	s2.Driver().(*mocks.MockDriver).AssertNotCalled(t, "Quit", mock.Anything)

	again, err := r.Acquire(ctx, w2)
	require.NoError(t, err)
	assert.Same(t, s2, again)
}

func TestRelease_Idempotent(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvisioner{}
	r := newRegistry(t, prov)
	w := registry.WorkerID("w")

	s, err := r.Acquire(ctx, w)
	require.NoError(t, err)

	require.NoError(t, r.Release(ctx, w))
	require.NoError(t, r.Release(ctx, w))
	require.NoError(t, r.Release(ctx, "never-acquired"))

	assert.Equal(t, registry.Terminated, s.State())
	s.Driver().(*mocks.MockDriver).AssertNumberOfCalls(t, "Quit", 1)
	_, ok := r.Lookup(w)
	assert.False(t, ok)

	fresh, err := r.Acquire(ctx, w)
	require.NoError(t, err)
	assert.NotSame(t, s, fresh, "a released worker gets a new session")
	assert.Equal(t, int32(2), prov.calls.Load())
}

func TestRelease_QuitFailure(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvisioner{quitErr: driver.Errorf(driver.CodeInvalidSessionID, "quit", "browser crashed")}
	r := newRegistry(t, prov)

	_, err := r.Acquire(ctx, "w")
	require.NoError(t, err)

	err = r.Release(ctx, "w")
	require.Error(t, err)
	var fe *failure.Error
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, r.Len(), "the session is evicted regardless")
	assert.NoError(t, r.Release(ctx, "w"))
}

func TestAcquire_ProvisionFailure(t *testing.T) {
	ctx := context.Background()
	boom := failure.Newf(failure.GridConnectionFailure, "provision", "ws://grid", "", "unreachable")
	prov := &fakeProvisioner{err: boom}
	r := newRegistry(t, prov)

	_, err := r.Acquire(ctx, "w")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())

	_, err = r.Acquire(ctx, "w")
	assert.Error(t, err)
	assert.Equal(t, int32(2), prov.calls.Load(), "a failed creation is retried on the next acquire")

	_, err = r.Acquire(ctx, "")
	assert.ErrorContains(t, err, "empty worker id")
}

func TestWorkerContext(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvisioner{}
	r := newRegistry(t, prov)

	_, err := r.AcquireFrom(ctx)
	assert.ErrorContains(t, err, "no worker id")

	wctx := registry.WithWorker(ctx, "w9")
	w, ok := registry.WorkerFrom(wctx)
	require.True(t, ok)
	assert.Equal(t, registry.WorkerID("w9"), w)

	s, err := r.AcquireFrom(wctx)
	require.NoError(t, err)
	assert.Equal(t, registry.WorkerID("w9"), s.Worker)
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	t.Run("Close Enabled", func(t *testing.T) {
		r := registry.New(zaptest.NewLogger(t), config.NewDefaultConfig(), &fakeProvisioner{})
		for _, w := range []registry.WorkerID{"a", "b", "c"} {
			_, err := r.Acquire(ctx, w)
			require.NoError(t, err)
		}
		require.NoError(t, r.Close(ctx))
		assert.Equal(t, 0, r.Len())
	})

	t.Run("Close Disabled", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Close = false
		r := registry.New(zaptest.NewLogger(t), cfg, &fakeProvisioner{})
		s, err := r.Acquire(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, r.Close(ctx))
		assert.Equal(t, registry.Active, s.State())

		require.NoError(t, r.ReleaseAll(ctx))
		assert.Equal(t, registry.Terminated, s.State())
	})

	t.Run("ReleaseAll Reports Failure", func(t *testing.T) {
		r := registry.New(zaptest.NewLogger(t), config.NewDefaultConfig(), &fakeProvisioner{quitErr: errors.New("stuck")})
		_, err := r.Acquire(ctx, "a")
		require.NoError(t, err)
		assert.Error(t, r.ReleaseAll(ctx))
		assert.Equal(t, 0, r.Len())
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Uninitialized", registry.Uninitialized.String())
	assert.Equal(t, "Active", registry.Active.String())
	assert.Equal(t, "Terminated", registry.Terminated.String())
}
