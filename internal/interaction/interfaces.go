package interaction

import (
	"context"
	"time"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// The interfaces below split the operations by concern so a Page Object can
// depend on just what it uses. *Interactions implements all of them.

// Clicker clicks elements.
type Clicker interface {
	Click(ctx context.Context, loc driver.Locator, description string) error
	ClickWithin(ctx context.Context, loc driver.Locator, timeout time.Duration, description string) error
	ClickByAttribute(ctx context.Context, attr, value string) error
	ClickByText(ctx context.Context, text string) error
	ClickByNormalizeText(ctx context.Context, text string) error
	RandomClickList(ctx context.Context, loc driver.Locator, description string) error
}

// Writer changes the value of form fields.
type Writer interface {
	Write(ctx context.Context, loc driver.Locator, text, description string) error
	WriteSlowly(ctx context.Context, loc driver.Locator, text, description string) error
	ClearAndWrite(ctx context.Context, loc driver.Locator, text, description string) error
	Backspace(ctx context.Context, loc driver.Locator, text string) error
	TextClear(ctx context.Context, loc driver.Locator, description string) error
	SelectComboByValue(ctx context.Context, loc driver.Locator, value, description string) error
}

// Reader reads element state.
type Reader interface {
	GetText(ctx context.Context, loc driver.Locator, description string) (string, error)
	GetAttribute(ctx context.Context, loc driver.Locator, attr, description string) (string, error)
	IsRadioSelected(ctx context.Context, loc driver.Locator, description string) (bool, error)
	SizeListElements(ctx context.Context, loc driver.Locator, description string) (int, error)
	PageValidation(ctx context.Context, loc driver.Locator, expected, description string) error
}

// Prober answers questions about the page without ever failing.
type Prober interface {
	IsDisplayed(ctx context.Context, loc driver.Locator, description string) bool
	IsDisplayedWithin(ctx context.Context, loc driver.Locator, window time.Duration, description string) bool
	IsExists(ctx context.Context, loc driver.Locator, description string) bool
	IsExistsWithin(ctx context.Context, loc driver.Locator, window time.Duration, description string) bool
	ButtonIsEnabled(ctx context.Context, loc driver.Locator, description string) bool
}

// Awaiter blocks until elements are ready.
type Awaiter interface {
	AwaitElement(ctx context.Context, loc driver.Locator, description string) error
	AwaitElementFor(ctx context.Context, loc driver.Locator, timeout time.Duration, description string) error
	AwaitElementPolling(ctx context.Context, loc driver.Locator, timeout, poll time.Duration, description string) error
	Wait(ctx context.Context, d time.Duration) error
}

// Alerter handles JavaScript dialogs.
type Alerter interface {
	AlertText(ctx context.Context) (string, error)
	WriteAlert(ctx context.Context, text string) error
	AcceptAlert(ctx context.Context, accept bool) error
}

// Framer moves between frames.
type Framer interface {
	SwitchFrameIndex(ctx context.Context, index int, description string) error
	SwitchFrameName(ctx context.Context, name, description string) error
	FrameDefault(ctx context.Context) error
}

// Browser drives navigation, tabs and scrolling.
type Browser interface {
	URL(ctx context.Context, url string) error
	Refresh(ctx context.Context, description string) error
	RefreshAndValidate(ctx context.Context, loc driver.Locator, expected, description string) error
	NewTab(ctx context.Context) error
	SwitchTab(ctx context.Context, index int) error
	CloseTab(ctx context.Context) error
	Scroll(ctx context.Context, loc driver.Locator, description string) error
	ScrollCenter(ctx context.Context, loc driver.Locator, description string) error
}

// Gestures performs pointer and keyboard gestures.
type Gestures interface {
	Slider(ctx context.Context, loc driver.Locator, offset int, description string) error
	SliderSendKeys(ctx context.Context, loc driver.Locator, repetitions int, description string) error
	MoveMouse(ctx context.Context, loc driver.Locator, description string) error
}

// Operations is the whole surface.
type Operations interface {
	Clicker
	Writer
	Reader
	Prober
	Awaiter
	Alerter
	Framer
	Browser
	Gestures
}

var _ Operations = (*Interactions)(nil)
