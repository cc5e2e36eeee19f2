package interaction

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/failure"
	"github.com/xkilldash9x/pagekit/internal/wait"
)

// alertPolicy waits for a dialog to open. Only its absence is transient.
func (i *Interactions) alertPolicy() (wait.Policy, error) {
	return wait.NewPolicy(i.timing.Timeout, i.timing.PollInterval, failure.NoAlertPresent)
}

// withAlert waits for a dialog on the worker's session and runs fn on it.
func (i *Interactions) withAlert(ctx context.Context, fn func(d driver.Driver) error) error {
	d, err := i.session(ctx)
	if err != nil {
		return err
	}
	policy, err := i.alertPolicy()
	if err != nil {
		return err
	}
	if _, err := wait.Until(ctx, i.waiter, policy, d.AlertText); err != nil {
		return err
	}
	return fn(d)
}

// AlertText waits for a dialog and returns its message.
func (i *Interactions) AlertText(ctx context.Context) (string, error) {
	i.logger.Debug("AlertText - reading dialog text")
	var text string
	err := i.withAlert(ctx, func(d driver.Driver) error {
		var err error
		text, err = d.AlertText(ctx)
		return err
	})
	if err != nil {
		return "", i.failMissing(ctx, failure.NoAlertPresent, "AlertText", "AlertText", err)
	}
	return text, nil
}

// WriteAlert waits for a prompt and types text as its answer.
func (i *Interactions) WriteAlert(ctx context.Context, text string) error {
	i.logger.Debug("WriteAlert - writing into dialog", zap.String("text", text))
	err := i.withAlert(ctx, func(d driver.Driver) error {
		return d.SendAlertText(ctx, text)
	})
	if err != nil {
		return i.failMissing(ctx, failure.NoAlertPresent, "WriteAlert", "WriteAlert: "+text, err)
	}
	return nil
}

// AcceptAlert waits for a dialog and accepts it, or dismisses it when accept
// is false.
func (i *Interactions) AcceptAlert(ctx context.Context, accept bool) error {
	i.logger.Debug("AcceptAlert - closing dialog", zap.Bool("accept", accept))
	err := i.withAlert(ctx, func(d driver.Driver) error {
		if accept {
			return d.AcceptAlert(ctx)
		}
		return d.DismissAlert(ctx)
	})
	if err != nil {
		return i.failMissing(ctx, failure.NoAlertPresent, "AcceptAlert", "AcceptAlert "+strconv.FormatBool(accept), err)
	}
	return nil
}
