package firefox

import (
	"context"
	"errors"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// pwMessages maps fragments of Playwright error messages to WebDriver codes.
// Action timeouts carry Playwright's call log, so the reason the element was
// not actionable is matched before the timeout itself. First match wins.
var pwMessages = []struct {
	fragment string
	code     driver.Code
}{
	{"Browser has been closed", driver.CodeInvalidSessionID},
	{"Browser closed", driver.CodeInvalidSessionID},
	{"Target page, context or browser has been closed", driver.CodeNoSuchWindow},
	{"Element is not attached to the DOM", driver.CodeStaleElement},
	{"element is detached", driver.CodeStaleElement},
	{"Frame was detached", driver.CodeNoSuchFrame},
	{"frame document is not accessible", driver.CodeNoSuchFrame},
	{"intercepts pointer events", driver.CodeElementClickIntercepted},
	{"element is outside of the viewport", driver.CodeMoveTargetOutOfBounds},
	{"element is not visible", driver.CodeElementNotVisible},
	{"Element is not visible", driver.CodeElementNotVisible},
	{"element is not enabled", driver.CodeInvalidElementState},
	{"element is not editable", driver.CodeInvalidElementState},
	{"Element is not an <input>", driver.CodeInvalidElementState},
	{"invalid element state", driver.CodeInvalidElementState},
	{"element is not stable", driver.CodeElementNotInteractable},
	{"did not find some options", driver.CodeNoSuchElement},
	{"no such element", driver.CodeNoSuchElement},
	{"Cannot accept dialog which is already handled", driver.CodeNoSuchAlert},
	{"Cannot dismiss dialog which is already handled", driver.CodeNoSuchAlert},
	{"Unexpected token", driver.CodeInvalidSelector},
	{"while parsing selector", driver.CodeInvalidSelector},
	{"is not a valid selector", driver.CodeInvalidSelector},
	{"is not a valid XPath expression", driver.CodeInvalidSelector},
	{"ECONNREFUSED", driver.CodeSessionNotCreated},
	{"connection refused", driver.CodeSessionNotCreated},
	{"WebSocket error", driver.CodeSessionNotCreated},
}

// translate attaches a WebDriver code to a raw Playwright failure.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := driver.CodeOf(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	msg := err.Error()
	for _, m := range pwMessages {
		if strings.Contains(msg, m.fragment) {
			return driver.NewError(m.code, op, err)
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, playwright.ErrTimeout):
		return driver.NewError(driver.CodeTimeout, op, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return driver.NewError(driver.CodeNoSuchWindow, op, err)
	}
	return driver.NewError(driver.CodeUnknownError, op, err)
}
