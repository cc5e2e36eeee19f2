// Package registry keeps one browser session per worker. Sessions are created
// lazily on first use, at most once per worker even under concurrent first
// access, and torn down explicitly.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/provision"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

// Provisioner creates a session for a configuration.
type Provisioner interface {
	Provision(ctx context.Context, cfg config.Config) (driver.Driver, error)
}

// Registry maps workers to their sessions.
type Registry struct {
	logger *zap.Logger
	cfg    config.Config
	prov   Provisioner

	group singleflight.Group

	mu       sync.Mutex
	sessions map[WorkerID]*Session
}

// New returns an empty registry that provisions sessions for cfg.
func New(logger *zap.Logger, cfg config.Config, prov Provisioner) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:   logger.Named("registry"),
		cfg:      cfg,
		prov:     prov,
		sessions: make(map[WorkerID]*Session),
	}
}

func (r *Registry) lookup(w WorkerID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[w]
}

// Lookup returns the worker's session without creating one.
func (r *Registry) Lookup(w WorkerID) (*Session, bool) {
	s := r.lookup(w)
	return s, s != nil
}

// ProvisionTimeout bounds one session creation. Provisioning is detached
// from the caller that started it, so this is its only deadline besides the
// provisioner's own grid timeout.
const ProvisionTimeout = 2 * time.Minute

// Acquire returns the worker's session, provisioning it on first use.
// Concurrent first calls for the same worker share a single provisioning.
// A caller whose ctx ends stops waiting, but the provisioning carries on for
// the others and the session is kept for the worker's next Acquire.
func (r *Registry) Acquire(ctx context.Context, w WorkerID) (*Session, error) {
	if w == "" {
		return nil, fmt.Errorf("acquire: empty worker id")
	}
	if s := r.lookup(w); s != nil {
		return s, nil
	}

	ch := r.group.DoChan(string(w), func() (interface{}, error) {
		if s := r.lookup(w); s != nil {
			return s, nil
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ProvisionTimeout)
		defer cancel()
		return r.create(pctx, w)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logger.Error("Session provisioning failed", zap.Stringer("worker", w), zap.Error(res.Err))
			return nil, res.Err
		}
		if res.Shared {
			r.logger.Debug("Joined concurrent session creation", zap.Stringer("worker", w))
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire %s: %w", w, ctx.Err())
	}
}

func (r *Registry) create(ctx context.Context, w WorkerID) (*Session, error) {
	start := time.Now()
	d, err := r.prov.Provision(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:      uuid.NewString(),
		Worker:  w,
		Browser: r.cfg.Browser,
		Mode:    provision.ModeOf(r.cfg),
		Created: time.Now(),
		driver:  d,
		state:   Active,
	}
	r.mu.Lock()
	r.sessions[w] = s
	r.mu.Unlock()
	r.logger.Info("Session acquired",
		zap.Stringer("worker", w),
		zap.String("session", s.ID),
		zap.String("mode", string(s.Mode)),
		zap.Duration("took", time.Since(start)))
	return s, nil
}

// AcquireFrom acquires the session of the worker carried by ctx.
func (r *Registry) AcquireFrom(ctx context.Context) (*Session, error) {
	w, ok := WorkerFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("acquire: context carries no worker id")
	}
	return r.Acquire(ctx, w)
}

// Release terminates the worker's session and forgets it. Releasing an
// absent or already terminated session is a no-op. The session is evicted
// even when the browser fails to quit cleanly.
func (r *Registry) Release(ctx context.Context, w WorkerID) error {
	r.mu.Lock()
	s := r.sessions[w]
	delete(r.sessions, w)
	r.mu.Unlock()
	if s == nil {
		return nil
	}

	terminated, err := s.terminate(ctx)
	if !terminated {
		return nil
	}
	if err != nil {
		r.logger.Warn("Browser did not quit cleanly", zap.Stringer("worker", w), zap.Error(err))
		return failure.New("release", string(w), "", err)
	}
	r.logger.Info("Session released", zap.Stringer("worker", w), zap.String("session", s.ID))
	return nil
}

// Workers lists the workers holding a session.
func (r *Registry) Workers() []WorkerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WorkerID, 0, len(r.sessions))
	for w := range r.sessions {
		out = append(out, w)
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ReleaseAll releases every session concurrently and returns the first
// failure.
func (r *Registry) ReleaseAll(ctx context.Context) error {
	var g errgroup.Group
	for _, w := range r.Workers() {
		g.Go(func() error { return r.Release(ctx, w) })
	}
	return g.Wait()
}

// Close is the end-of-run hook. Sessions are released only when the
// configuration asks for it; otherwise the browsers are left open for
// inspection.
func (r *Registry) Close(ctx context.Context) error {
	if !r.cfg.Close {
		r.logger.Info("Leaving sessions open", zap.Int("sessions", r.Len()))
		return nil
	}
	return r.ReleaseAll(ctx)
}
