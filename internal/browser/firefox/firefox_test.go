package firefox

import (
	"context"
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePage stands in for a Playwright page; only the dialog hook is used by
// the bookkeeping under test.
type fakePage struct {
	playwright.Page
	onDialog func(playwright.Dialog)
}

func (p *fakePage) OnDialog(fn func(playwright.Dialog)) { p.onDialog = fn }

type fakeDialog struct {
	playwright.Dialog
	kind, message string
	accepted      []string
	acceptCalls   int
	dismissed     bool
}

func (f *fakeDialog) Type() string    { return f.kind }
func (f *fakeDialog) Message() string { return f.message }
func (f *fakeDialog) Accept(promptText ...string) error {
	f.acceptCalls++
	f.accepted = append(f.accepted, promptText...)
	return nil
}
func (f *fakeDialog) Dismiss() error {
	f.dismissed = true
	return nil
}

type fakeHandle struct {
	playwright.ElementHandle
	text    string
	visible bool
	err     error
}

func (h *fakeHandle) InnerText() (string, error) { return h.text, h.err }
func (h *fakeHandle) IsVisible() (bool, error)   { return h.visible, h.err }

func newTestDriver(t *testing.T, pages int) (*Driver, []*fakePage) {
	t.Helper()
	d := newDriver(zaptest.NewLogger(t), Options{})
	var fakes []*fakePage
	for i := 0; i < pages; i++ {
		p := &fakePage{}
		fakes = append(fakes, p)
		tb := d.track(p)
		if i == 0 {
			d.current = tb
		}
	}
	return d, fakes
}

func codeOf(t *testing.T, err error) driver.Code {
	t.Helper()
	require.Error(t, err)
	code, ok := driver.CodeOf(err)
	require.True(t, ok, "error %v carries no code", err)
	return code
}

func TestOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser = config.Firefox
	cfg.Headless = true
	o := OptionsFromConfig(cfg)

	launch := LaunchOptions(o)
	require.NotNil(t, launch.Headless)
	assert.True(t, *launch.Headless)
	assert.Equal(t, true, launch.FirefoxUserPrefs["layers.acceleration.disabled"])

	ctxOpts := ContextOptions(o)
	require.NotNil(t, ctxOpts.IgnoreHttpsErrors)
	assert.True(t, *ctxOpts.IgnoreHttpsErrors)
	assert.Equal(t, &playwright.Size{Width: 1920, Height: 1080}, ctxOpts.Viewport)

	headed := UserPrefs(Options{})
	assert.NotContains(t, headed, "layers.acceleration.disabled")
	assert.Equal(t, UserPrefs(o), UserPrefs(o))
}

func TestTranslate(t *testing.T) {
	testCases := []struct {
		msg  string
		want driver.Code
	}{
		{"Element is not attached to the DOM", driver.CodeStaleElement},
		{"Timeout 2000ms exceeded.\n  - element is not visible - waiting...", driver.CodeElementNotVisible},
		{"Timeout 2000ms exceeded.\n  - <div class=\"overlay\"></div> intercepts pointer events", driver.CodeElementClickIntercepted},
		{"Error: Element is not an <input>, <textarea> or [contenteditable] element", driver.CodeInvalidElementState},
		{"Timeout 2000ms exceeded.\n  - did not find some options", driver.CodeNoSuchElement},
		{"Cannot accept dialog which is already handled!", driver.CodeNoSuchAlert},
		{"Unexpected token \"[\" while parsing selector", driver.CodeInvalidSelector},
		{"connect ECONNREFUSED 127.0.0.1:4444", driver.CodeSessionNotCreated},
		{"Target page, context or browser has been closed", driver.CodeNoSuchWindow},
		{"something odd", driver.CodeUnknownError},
	}
	for _, tc := range testCases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.want, codeOf(t, translate("op", errors.New(tc.msg))))
		})
	}

	assert.NoError(t, translate("op", nil))
	assert.Equal(t, driver.CodeTimeout, codeOf(t, translate("op", context.DeadlineExceeded)))
	assert.ErrorIs(t, translate("op", context.Canceled), context.Canceled)
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "xpath=//button", selector(driver.XPath("//button")))
	assert.Equal(t, "css=#login", selector(driver.CSS("#login")))
	assert.Equal(t, `"a\"b"`, quote(`a"b`))
}

func TestDialogs(t *testing.T) {
	ctx := context.Background()
	d, pages := newTestDriver(t, 1)

	_, err := d.AlertText(ctx)
	assert.Equal(t, driver.CodeNoSuchAlert, codeOf(t, err))

	prompt := &fakeDialog{kind: "prompt", message: "Name?"}
	require.NotNil(t, pages[0].onDialog)
	pages[0].onDialog(prompt)

	text, err := d.AlertText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Name?", text)

	_, err = d.FindElements(ctx, driver.CSS("input"))
	assert.Equal(t, driver.CodeUnexpectedAlertOpen, codeOf(t, err), "page access is blocked while a dialog is open")

	require.NoError(t, d.SendAlertText(ctx, "Ada"))
	require.NoError(t, d.AcceptAlert(ctx))
	assert.Equal(t, []string{"Ada"}, prompt.accepted)

	assert.Equal(t, driver.CodeNoSuchAlert, codeOf(t, d.AcceptAlert(ctx)))

	alert := &fakeDialog{kind: "alert", message: "Saved"}
	pages[0].onDialog(alert)
	assert.Equal(t, driver.CodeElementNotInteractable, codeOf(t, d.SendAlertText(ctx, "x")))
	require.NoError(t, d.DismissAlert(ctx))
	assert.True(t, alert.dismissed)
}

func TestWindows(t *testing.T) {
	ctx := context.Background()
	d, pages := newTestDriver(t, 3)

	handles, err := d.WindowHandles(ctx)
	require.NoError(t, err)
	require.Len(t, handles, 3)

	// A page reported twice (NewPage result and the context's page event)
	// is tracked once.
	d.track(pages[1])
	handles2, err := d.WindowHandles(ctx)
	require.NoError(t, err)
	assert.Equal(t, handles, handles2)

	require.NoError(t, d.SwitchToWindow(ctx, handles[2]))
	tb, _, err := d.snapshot("test")
	require.NoError(t, err)
	assert.Same(t, pages[2], tb.page)

	assert.Equal(t, driver.CodeNoSuchWindow, codeOf(t, d.SwitchToWindow(ctx, "nope")))

	require.NoError(t, d.Quit(ctx))
	require.NoError(t, d.Quit(ctx), "quit is idempotent")
	_, err = d.WindowHandles(ctx)
	assert.Equal(t, driver.CodeInvalidSessionID, codeOf(t, err))
}

func TestElement(t *testing.T) {
	ctx := context.Background()
	d, pages := newTestDriver(t, 1)
	tb := d.current

	h := &fakeHandle{text: "Welcome", visible: true}
	el := &element{d: d, t: tb, h: h}

	text, err := el.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", text)

	ok, err := el.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	h.err = errors.New("Element is not attached to the DOM")
	_, err = el.Text(ctx)
	assert.Equal(t, driver.CodeStaleElement, codeOf(t, err))

	h.err = nil
	pages[0].onDialog(&fakeDialog{kind: "confirm", message: "Sure?"})
	_, err = el.Text(ctx)
	assert.Equal(t, driver.CodeUnexpectedAlertOpen, codeOf(t, err))
}

func TestAwait_AbandonsCallOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	finished := make(chan struct{})

	cancel()

	_, err := await(ctx, func() (int, error) {
		defer close(finished)
		<-release
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// The abandoned call runs to completion without blocking on its result.
	close(release)
	<-finished
}
