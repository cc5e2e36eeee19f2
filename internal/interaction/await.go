package interaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/wait"
)

// AwaitElement waits up to the default timeout for loc to be displayed and
// enabled.
func (i *Interactions) AwaitElement(ctx context.Context, loc driver.Locator, description string) error {
	return i.awaitElement(ctx, "AwaitElement", loc, i.timing.Timeout, i.timing.PollInterval, description)
}

// AwaitElementFor is AwaitElement with its own timeout.
func (i *Interactions) AwaitElementFor(ctx context.Context, loc driver.Locator, timeout time.Duration, description string) error {
	return i.awaitElement(ctx, "AwaitElementFor", loc, timeout, i.timing.PollInterval, description)
}

// AwaitElementPolling is AwaitElement with its own timeout and poll interval.
func (i *Interactions) AwaitElementPolling(ctx context.Context, loc driver.Locator, timeout, poll time.Duration, description string) error {
	return i.awaitElement(ctx, "AwaitElementPolling", loc, timeout, poll, description)
}

func (i *Interactions) awaitElement(ctx context.Context, op string, loc driver.Locator, timeout, poll time.Duration, description string) error {
	i.logger.Debug(op+" - waiting for element", zap.String("target", description), zap.Duration("timeout", timeout))
	d, err := i.session(ctx)
	if err != nil {
		return i.fail(ctx, op, description, err)
	}
	policy, err := wait.NewPolicy(timeout, poll, wait.Transient.Kinds()...)
	if err != nil {
		return err
	}
	if _, err := i.ready(ctx, d, policy, loc); err != nil {
		return i.fail(ctx, op, description, err)
	}
	return nil
}

// Wait pauses the worker for d. Only the context can cut it short, which is
// reported as an interrupted wait.
func (i *Interactions) Wait(ctx context.Context, d time.Duration) error {
	i.logger.Debug("Wait - pausing", zap.Duration("duration", d))
	if err := i.waiter.Clock().Sleep(ctx, d); err != nil {
		return i.fail(ctx, "Wait", d.String(), err)
	}
	return nil
}
