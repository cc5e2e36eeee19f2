package interaction

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/failure"
	"github.com/xkilldash9x/pagekit/internal/wait"
)

// -- Navigation --

// URL loads url in the current tab.
func (i *Interactions) URL(ctx context.Context, url string) error {
	i.logger.Debug("URL - navigating", zap.String("url", url))
	d, err := i.session(ctx)
	if err == nil {
		err = d.Navigate(ctx, url)
	}
	if err != nil {
		return i.fail(ctx, "URL", url, err)
	}
	return nil
}

// Refresh reloads the current page.
func (i *Interactions) Refresh(ctx context.Context, description string) error {
	i.logger.Debug("Refresh - reloading page", zap.String("target", description))
	if err := i.refresh(ctx); err != nil {
		return i.fail(ctx, "Refresh", description, err)
	}
	return nil
}

func (i *Interactions) refresh(ctx context.Context) error {
	d, err := i.session(ctx)
	if err != nil {
		return err
	}
	return d.Refresh(ctx)
}

// RefreshAndValidate reloads the page and then checks, as PageValidation
// does, that loc shows expected.
func (i *Interactions) RefreshAndValidate(ctx context.Context, loc driver.Locator, expected, description string) error {
	i.logger.Debug("RefreshAndValidate - reloading and validating page", zap.String("target", description))
	if err := i.refresh(ctx); err != nil {
		return i.fail(ctx, "RefreshAndValidate", description, err)
	}
	return i.pageValidation(ctx, "RefreshAndValidate", loc, expected, description)
}

// -- Tabs --

// NewTab opens a blank tab. The current tab does not change.
func (i *Interactions) NewTab(ctx context.Context) error {
	i.logger.Debug("NewTab - opening tab")
	d, err := i.session(ctx)
	if err == nil {
		err = d.NewTab(ctx)
	}
	if err != nil {
		return i.fail(ctx, "NewTab", "new tab", err)
	}
	return nil
}

// SwitchTab makes the index-th open tab current.
func (i *Interactions) SwitchTab(ctx context.Context, index int) error {
	i.logger.Debug("SwitchTab - switching tab", zap.Int("index", index))
	target := "tab " + strconv.Itoa(index)
	d, err := i.session(ctx)
	if err != nil {
		return i.fail(ctx, "SwitchTab", target, err)
	}
	handles, err := d.WindowHandles(ctx)
	if err != nil {
		return i.fail(ctx, "SwitchTab", target, err)
	}
	i.logger.Debug("SwitchTab - open tabs", zap.Strings("handles", handles))
	if index < 0 || index >= len(handles) {
		return i.fail(ctx, "SwitchTab", target,
			driver.Errorf(driver.CodeNoSuchWindow, "switch window", "tab %d out of range (%d open)", index, len(handles)))
	}
	if err := d.SwitchToWindow(ctx, handles[index]); err != nil {
		return i.fail(ctx, "SwitchTab", target, err)
	}
	return nil
}

// CloseTab closes the current tab. Call SwitchTab afterwards to keep working.
func (i *Interactions) CloseTab(ctx context.Context) error {
	i.logger.Debug("CloseTab - closing current tab")
	d, err := i.session(ctx)
	if err == nil {
		err = d.CloseWindow(ctx)
	}
	if err != nil {
		return i.fail(ctx, "CloseTab", "current tab", err)
	}
	return nil
}

// -- Frames --

// framePolicy waits for a frame to load. Only its absence is transient.
func (i *Interactions) framePolicy() (wait.Policy, error) {
	return wait.NewPolicy(i.timing.Timeout, i.timing.PollInterval, failure.FrameNotFound)
}

func (i *Interactions) switchFrame(ctx context.Context, op, description string, enter func(context.Context, driver.Driver) error) error {
	d, err := i.session(ctx)
	if err != nil {
		return i.fail(ctx, op, description, err)
	}
	policy, err := i.framePolicy()
	if err != nil {
		return err
	}
	err = i.waiter.Await(ctx, policy, func(ctx context.Context) error { return enter(ctx, d) })
	if err != nil {
		return i.failMissing(ctx, failure.FrameNotFound, op, description, err)
	}
	return nil
}

// SwitchFrameIndex enters the index-th frame of the current browsing
// context, waiting for it to load.
func (i *Interactions) SwitchFrameIndex(ctx context.Context, index int, description string) error {
	i.logger.Debug("SwitchFrame - entering frame by index", zap.Int("index", index), zap.String("target", description))
	return i.switchFrame(ctx, "SwitchFrame", description, func(ctx context.Context, d driver.Driver) error {
		return d.SwitchToFrameIndex(ctx, index)
	})
}

// SwitchFrameName enters the frame named (or with id) name, waiting for it
// to load.
func (i *Interactions) SwitchFrameName(ctx context.Context, name, description string) error {
	i.logger.Debug("SwitchFrame - entering frame by name", zap.String("name", name), zap.String("target", description))
	return i.switchFrame(ctx, "SwitchFrame", description, func(ctx context.Context, d driver.Driver) error {
		return d.SwitchToFrameName(ctx, name)
	})
}

// FrameDefault returns to the top document.
func (i *Interactions) FrameDefault(ctx context.Context) error {
	i.logger.Debug("FrameDefault - returning to main content")
	d, err := i.session(ctx)
	if err == nil {
		err = d.SwitchToDefaultContent(ctx)
	}
	if err != nil {
		return i.fail(ctx, "FrameDefault", "Frame Default", err)
	}
	return nil
}

// -- Scrolling --

// Scroll brings loc into view, aligned to the top of the viewport.
func (i *Interactions) Scroll(ctx context.Context, loc driver.Locator, description string) error {
	i.logger.Debug("Scroll - scrolling to element", zap.String("target", description))
	return i.scroll(ctx, "Scroll", loc, false, description)
}

// ScrollCenter brings loc into the vertical centre of the viewport.
func (i *Interactions) ScrollCenter(ctx context.Context, loc driver.Locator, description string) error {
	i.logger.Debug("ScrollCenter - centring element", zap.String("target", description))
	return i.scroll(ctx, "ScrollCenter", loc, true, description)
}

func (i *Interactions) scroll(ctx context.Context, op string, loc driver.Locator, center bool, description string) error {
	el, err := i.presentDefault(ctx, loc)
	if err == nil {
		err = el.ScrollIntoView(ctx, center)
	}
	if err != nil {
		return i.fail(ctx, op, description, err)
	}
	return nil
}
