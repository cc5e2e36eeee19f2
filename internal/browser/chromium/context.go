package chromium

import (
	"context"
	"time"
)

// combine derives a context from the tab context, which carries the CDP
// executor, that also ends when op ends. When op has no deadline the
// command timeout is applied.
func combine(tab, op context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(op, cancel)

	cancelTimeout := func() {}
	if _, ok := op.Deadline(); !ok && timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
	}

	return ctx, func() {
		stop()
		cancelTimeout()
		cancel()
	}
}

// allocate performs the first Run on a fresh chromedp context, which is what
// actually starts the browser or opens the tab. The Run itself must use the
// chromedp context, so the caller's context is honoured by racing it.
func allocate(ctx, tab context.Context, run func(context.Context) error) error {
	done := make(chan error, 1)
	go func() { done <- run(tab) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
