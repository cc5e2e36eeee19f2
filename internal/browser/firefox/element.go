package firefox

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

type element struct {
	d *Driver
	t *tab
	h playwright.ElementHandle
}

var _ driver.Element = (*element)(nil)

// live fails fast when the element's tab is gone or blocked by a dialog.
func (e *element) live(op string) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	switch {
	case e.d.quit:
		return driver.Errorf(driver.CodeInvalidSessionID, op, "session has been quit")
	case e.t.closed:
		return driver.Errorf(driver.CodeNoSuchWindow, op, "window was closed")
	case e.t.dialog != nil:
		return driver.Errorf(driver.CodeUnexpectedAlertOpen, op, "dialog open: %q", e.t.dialog.Message())
	}
	return nil
}

func (e *element) do(ctx context.Context, op string, fn func() error) error {
	if err := e.live(op); err != nil {
		return err
	}
	return e.d.do(ctx, op, fn)
}

func (e *element) timeout() *float64 { return millis(e.d.opts.actionTimeout()) }

func (e *element) Click(ctx context.Context) error {
	return e.do(ctx, "click", func() error {
		return e.h.Click(playwright.ElementHandleClickOptions{Timeout: e.timeout()})
	})
}

const prepareTypingJS = `el => {
	if (!el.isConnected) { throw new Error('element is detached'); }
	if (el.disabled || el.readOnly) { throw new Error('invalid element state: element is disabled or read-only'); }
	el.focus();
	if (el.ownerDocument.activeElement !== el) { throw new Error('element is not focusable'); }
	if (typeof el.setSelectionRange === 'function' && typeof el.value === 'string') {
		try { el.setSelectionRange(el.value.length, el.value.length); } catch (e) {}
	}
}`

// SendKeys focuses the element, puts the caret at the end and types text,
// pressing special keys by their DOM names.
func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.do(ctx, "send keys", func() error {
		if _, err := e.h.Evaluate(prepareTypingJS); err != nil {
			if strings.Contains(err.Error(), "element is not focusable") {
				return driver.NewError(driver.CodeElementNotInteractable, "send keys", err)
			}
			return err
		}
		kb := e.t.page.Keyboard()
		var run strings.Builder
		flush := func() error {
			if run.Len() == 0 {
				return nil
			}
			s := run.String()
			run.Reset()
			return kb.Type(s)
		}
		for _, r := range text {
			name, special := driver.KeyNames[string(r)]
			if !special {
				run.WriteRune(r)
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			if err := kb.Press(name); err != nil {
				return err
			}
		}
		return flush()
	})
}

func (e *element) Clear(ctx context.Context) error {
	return e.do(ctx, "clear", func() error {
		return e.h.Fill("", playwright.ElementHandleFillOptions{Timeout: e.timeout()})
	})
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.do(ctx, "text", func() (err error) {
		text, err = e.h.InnerText()
		return err
	})
	return text, err
}

const valueJS = `el => typeof el.value === 'string' ? el.value : el.getAttribute('value')`

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	var value string
	err := e.do(ctx, "attribute", func() error {
		if name != "value" {
			v, err := e.h.GetAttribute(name)
			value = v
			return err
		}
		v, err := e.h.Evaluate(valueJS)
		if s, ok := v.(string); ok {
			value = s
		}
		return err
	})
	return value, err
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "is displayed", func() (err error) {
		ok, err = e.h.IsVisible()
		return err
	})
	return ok, err
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "is enabled", func() (err error) {
		ok, err = e.h.IsEnabled()
		return err
	})
	return ok, err
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "is selected", func() error {
		v, err := e.h.Evaluate(`el => !!(el.checked || el.selected)`)
		ok, _ = v.(bool)
		return err
	})
	return ok, err
}

func (e *element) SelectByValue(ctx context.Context, value string) error {
	return e.do(ctx, "select by value", func() error {
		values := []string{value}
		_, err := e.h.SelectOption(playwright.SelectOptionValues{Values: &values},
			playwright.ElementHandleSelectOptionOptions{Timeout: e.timeout()})
		return err
	})
}

func (e *element) DragBy(ctx context.Context, dx, dy int) error {
	return e.do(ctx, "drag", func() error {
		if err := e.h.ScrollIntoViewIfNeeded(); err != nil {
			return err
		}
		box, err := e.h.BoundingBox()
		if err != nil {
			return err
		}
		if box == nil {
			return driver.Errorf(driver.CodeElementNotVisible, "drag", "element has no layout box")
		}
		x, y := box.X+box.Width/2, box.Y+box.Height/2
		mouse := e.t.page.Mouse()
		if err := mouse.Move(x, y); err != nil {
			return err
		}
		if err := mouse.Down(); err != nil {
			return err
		}
		if err := mouse.Move(x+float64(dx), y+float64(dy)); err != nil {
			return err
		}
		return mouse.Up()
	})
}

func (e *element) Hover(ctx context.Context) error {
	return e.do(ctx, "hover", func() error {
		return e.h.Hover(playwright.ElementHandleHoverOptions{Timeout: e.timeout()})
	})
}

func (e *element) ScrollIntoView(ctx context.Context, centered bool) error {
	return e.do(ctx, "scroll", func() error {
		if !centered {
			return e.h.ScrollIntoViewIfNeeded()
		}
		_, err := e.h.Evaluate(`el => el.scrollIntoView({block: 'center', inline: 'nearest'})`)
		return err
	})
}
