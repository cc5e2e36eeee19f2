package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/provision"
	"github.com/xkilldash9x/pagekit/internal/config"
)

// WorkerID identifies the logical worker that owns a session.
type WorkerID string

// NewWorkerID returns a fresh random worker identity.
func NewWorkerID() WorkerID { return WorkerID(uuid.NewString()) }

func (w WorkerID) String() string { return string(w) }

type workerKey struct{}

// WithWorker returns a context carrying w.
func WithWorker(ctx context.Context, w WorkerID) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

// WorkerFrom extracts the worker identity stored by WithWorker.
func WorkerFrom(ctx context.Context) (WorkerID, bool) {
	w, ok := ctx.Value(workerKey{}).(WorkerID)
	return w, ok && w != ""
}

// State is a session's lifecycle position.
type State int

const (
	Uninitialized State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Active:
		return "Active"
	case Terminated:
		return "Terminated"
	}
	return "Unknown"
}

// Session is one worker's browser. Only the owning worker may drive it.
type Session struct {
	ID      string
	Worker  WorkerID
	Browser config.BrowserKind
	Mode    provision.Mode
	Created time.Time

	driver driver.Driver

	mu    sync.Mutex
	state State
}

// Driver returns the live browser handle.
func (s *Session) Driver() driver.Driver { return s.driver }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// terminate quits the browser once. ok is false when the session was
// already terminated.
func (s *Session) terminate(ctx context.Context) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Terminated {
		return false, nil
	}
	s.state = Terminated
	if s.driver == nil {
		return true, nil
	}
	return true, s.driver.Quit(ctx)
}
