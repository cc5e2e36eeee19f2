package chromium

import (
	"context"
	"errors"
	"strings"

	"github.com/chromedp/cdproto/runtime"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// cdpMessages maps fragments of CDP and chromedp error messages to WebDriver
// codes. Order matters: the first match wins.
var cdpMessages = []struct {
	fragment string
	code     driver.Code
}{
	{"Could not find node with given id", driver.CodeStaleElement},
	{"No node with given id found", driver.CodeStaleElement},
	{"Node is detached", driver.CodeStaleElement},
	{"Cannot find context with specified id", driver.CodeStaleElement},
	{"element is detached", driver.CodeStaleElement},
	{"Could not compute box model", driver.CodeElementNotVisible},
	{"Could not compute content quads", driver.CodeElementNotVisible},
	{"invalid dimensions", driver.CodeElementNotVisible},
	{"invalid box model", driver.CodeElementNotVisible},
	{"element is hidden", driver.CodeElementNotVisible},
	{"element is obscured", driver.CodeElementClickIntercepted},
	{"element is not focusable", driver.CodeElementNotInteractable},
	{"invalid element state", driver.CodeInvalidElementState},
	{"no such element", driver.CodeNoSuchElement},
	{"No dialog is showing", driver.CodeNoSuchAlert},
	{"is not a valid XPath expression", driver.CodeInvalidSelector},
	{"is not a valid selector", driver.CodeInvalidSelector},
	{"frame document is not accessible", driver.CodeNoSuchFrame},
	{"connection refused", driver.CodeSessionNotCreated},
	{"no such host", driver.CodeSessionNotCreated},
	{"bad handshake", driver.CodeSessionNotCreated},
	{"invalid context", driver.CodeInvalidSessionID},
	{"channel closed", driver.CodeInvalidSessionID},
}

// translate attaches a WebDriver code to a raw chromedp failure. Errors that
// already carry a code and context cancellations pass through untouched.
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
	if errors.Is(err, context.DeadlineExceeded) {
		return driver.NewError(driver.CodeTimeout, op, err)
	}
	msg := err.Error()
	for _, m := range cdpMessages {
		if strings.Contains(msg, m.fragment) {
			return driver.NewError(m.code, op, err)
		}
	}
	var se *scriptError
	if errors.As(err, &se) || strings.Contains(msg, "exception") {
		return driver.NewError(driver.CodeJavaScriptError, op, err)
	}
	return driver.NewError(driver.CodeUnknownError, op, err)
}

// scriptError flattens a thrown exception into an error whose text carries
// the exception's message, so translate can match on it.
type scriptError struct {
	text string
}

func (e *scriptError) Error() string { return "javascript: " + e.text }

func newScriptError(exc *runtime.ExceptionDetails) error {
	text := exc.Text
	if exc.Exception != nil && exc.Exception.Description != "" {
		text = exc.Exception.Description
	}
	return &scriptError{text: text}
}
