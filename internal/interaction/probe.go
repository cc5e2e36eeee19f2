package interaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

// Probes answer a question about the page and never fail: any error,
// including a timeout, is logged and downgraded to false.

// IsDisplayed reports whether loc becomes visible and enabled within the
// probe window.
func (i *Interactions) IsDisplayed(ctx context.Context, loc driver.Locator, description string) bool {
	return i.isDisplayed(ctx, "IsDisplayed", loc, i.timing.ProbeTimeout, description)
}

// IsDisplayedWithin is IsDisplayed with its own window.
func (i *Interactions) IsDisplayedWithin(ctx context.Context, loc driver.Locator, window time.Duration, description string) bool {
	return i.isDisplayed(ctx, "IsDisplayedWithin", loc, window, description)
}

func (i *Interactions) isDisplayed(ctx context.Context, op string, loc driver.Locator, window time.Duration, description string) bool {
	i.logger.Debug(op+" - checking element is visible", zap.String("target", description), zap.Duration("window", window))
	ok, err := i.probe(ctx, loc, window, true, func(ctx context.Context, el driver.Element) (bool, error) {
		return el.IsDisplayed(ctx)
	})
	if err != nil {
		i.downgrade(op, description, "element is not visible", err)
		return false
	}
	return ok
}

// IsExists reports whether loc matches an element in the DOM within the
// probe window. The element need not be visible.
func (i *Interactions) IsExists(ctx context.Context, loc driver.Locator, description string) bool {
	return i.isExists(ctx, "IsExists", loc, i.timing.ProbeTimeout, description)
}

// IsExistsWithin is IsExists with its own window.
func (i *Interactions) IsExistsWithin(ctx context.Context, loc driver.Locator, window time.Duration, description string) bool {
	return i.isExists(ctx, "IsExistsWithin", loc, window, description)
}

func (i *Interactions) isExists(ctx context.Context, op string, loc driver.Locator, window time.Duration, description string) bool {
	i.logger.Debug(op+" - checking element exists", zap.String("target", description), zap.Duration("window", window))
	_, err := i.probe(ctx, loc, window, false, nil)
	if err != nil {
		i.downgrade(op, description, "element does not exist in the DOM", err)
		return false
	}
	return true
}

// ButtonIsEnabled reports whether loc is enabled right now.
func (i *Interactions) ButtonIsEnabled(ctx context.Context, loc driver.Locator, description string) bool {
	i.logger.Debug("ButtonIsEnabled - checking element is enabled", zap.String("target", description))
	ok, err := i.buttonIsEnabled(ctx, loc)
	if err != nil {
		i.downgrade("ButtonIsEnabled", description, "element is not enabled", err)
		return false
	}
	return ok
}

func (i *Interactions) buttonIsEnabled(ctx context.Context, loc driver.Locator) (bool, error) {
	d, err := i.session(ctx)
	if err != nil {
		return false, err
	}
	el, err := driver.First(ctx, d, loc)
	if err != nil {
		return false, err
	}
	return el.IsEnabled(ctx)
}

// probe waits up to window for loc, ready when visible is set and merely
// present otherwise, then asks check about it. A nil check answers true.
// A window no longer than the poll interval gets a single look.
func (i *Interactions) probe(ctx context.Context, loc driver.Locator, window time.Duration, visible bool,
	check func(context.Context, driver.Element) (bool, error)) (bool, error) {
	d, err := i.session(ctx)
	if err != nil {
		return false, err
	}
	find := presentCheck(d, loc)
	if visible {
		find = readyCheck(d, loc)
	}

	var el driver.Element
	if window <= i.timing.PollInterval {
		el, err = find(ctx)
	} else {
		policy, perr := i.policy(window)
		if perr != nil {
			return false, perr
		}
		el, err = i.await(ctx, policy, loc, find)
	}
	if err != nil {
		return false, err
	}
	if check == nil {
		return true, nil
	}
	return check(ctx, el)
}

func (i *Interactions) downgrade(op, description, what string, err error) {
	i.logger.Warn(op+" - "+what,
		zap.String("target", description),
		zap.Stringer("kind", failure.Classify(err)),
		zap.Error(err))
}
