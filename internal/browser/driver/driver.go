// internal/browser/driver/driver.go
//
// Package driver defines the browser capability that the interaction engine
// drives. It deliberately says nothing about how a browser is reached: the
// chromium backend speaks CDP through chromedp, the firefox backend speaks the
// Playwright protocol, and tests use an in-memory page model. Everything above
// this package only ever sees Driver and Element.
package driver

import (
	"context"
	"fmt"
	"strings"
)

// By names the strategy used to resolve a Locator.
type By string

const (
	// ByXPath resolves the locator as an XPath 1.0 expression.
	ByXPath By = "xpath"
	// ByCSS resolves the locator as a CSS selector.
	ByCSS By = "css"
)

// Locator is an opaque selector expression. It carries no human readable
// label; descriptions travel separately and are only used for diagnostics.
type Locator struct {
	By    By
	Value string
}

// XPath returns a locator that resolves expr as XPath.
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

// CSS returns a locator that resolves sel as a CSS selector.
func CSS(sel string) Locator { return Locator{By: ByCSS, Value: sel} }

// String renders the locator in the "strategy=value" form used in logs.
func (l Locator) String() string {
	return string(l.By) + "=" + l.Value
}

// Validate reports whether the locator can be handed to a backend.
func (l Locator) Validate() error {
	switch l.By {
	case ByXPath, ByCSS:
	default:
		return fmt.Errorf("unsupported locator strategy %q", l.By)
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("empty %s locator", l.By)
	}
	return nil
}

// Element is a handle to a single node found through Driver.FindElements.
// Handles may go stale when the page re-renders; backends report that with
// CodeStaleElement.
type Element interface {
	Click(ctx context.Context) error
	// SendKeys types text into the element. Special keys use the Key* constants.
	SendKeys(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute (or, for "value", the live property).
	Attribute(ctx context.Context, name string) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	// SelectByValue picks the <option> whose value attribute equals value.
	SelectByValue(ctx context.Context, value string) error
	// DragBy presses the mouse on the element, moves it by (dx, dy) and releases.
	DragBy(ctx context.Context, dx, dy int) error
	Hover(ctx context.Context) error
	// ScrollIntoView brings the element into the viewport, vertically centred when center is set.
	ScrollIntoView(ctx context.Context, center bool) error
}

// Driver is one live browser session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error

	// FindElements returns every element matching loc in the current browsing
	// context. No match is not an error: the slice is simply empty.
	FindElements(ctx context.Context, loc Locator) ([]Element, error)

	SwitchToFrameIndex(ctx context.Context, index int) error
	SwitchToFrameName(ctx context.Context, nameOrID string) error
	SwitchToDefaultContent(ctx context.Context) error

	AlertText(ctx context.Context) (string, error)
	SendAlertText(ctx context.Context, text string) error
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error

	NewTab(ctx context.Context) error
	WindowHandles(ctx context.Context) ([]string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	CloseWindow(ctx context.Context) error

	DeleteAllCookies(ctx context.Context) error
	MaximizeWindow(ctx context.Context) error

	// Quit tears the browser session down. Calling it more than once is allowed.
	Quit(ctx context.Context) error
}

// First returns the first element matching loc, or a CodeNoSuchElement error.
func First(ctx context.Context, d Driver, loc Locator) (Element, error) {
	elements, err := d.FindElements(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, Errorf(CodeNoSuchElement, "find element", "no element matches %s", loc)
	}
	return elements[0], nil
}
