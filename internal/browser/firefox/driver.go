// Package firefox drives Firefox through Playwright. Playwright has no window
// handles, so the driver hands out its own for every page of the single
// browser context it manages.
package firefox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

type tab struct {
	handle string
	page   playwright.Page
	closed bool

	dialog     playwright.Dialog
	promptText string
}

// Driver implements driver.Driver on top of playwright-go.
type Driver struct {
	logger  *zap.Logger
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext

	mu      sync.Mutex
	tabs    []*tab
	current *tab
	// frames is the path from the main frame to the current frame.
	frames []playwright.Frame
	quit   bool
}

var _ driver.Driver = (*Driver)(nil)

// Launch installs the Playwright driver if needed and starts a local Firefox.
func Launch(ctx context.Context, logger *zap.Logger, opts Options) (*Driver, error) {
	pw, err := startPlaywright(ctx, opts)
	if err != nil {
		return nil, driver.NewError(driver.CodeSessionNotCreated, "launch FIREFOX", err)
	}
	browser, err := await(ctx, func() (playwright.Browser, error) {
		return pw.Firefox.Launch(LaunchOptions(opts))
	})
	if err != nil {
		_ = pw.Stop()
		return nil, driver.NewError(driver.CodeSessionNotCreated, "launch FIREFOX", err)
	}
	return open(ctx, logger, opts, pw, browser)
}

// Connect attaches to a Playwright browser server, such as a grid node.
func Connect(ctx context.Context, logger *zap.Logger, wsURL string, opts Options) (*Driver, error) {
	pw, err := startPlaywright(ctx, opts)
	if err != nil {
		return nil, driver.NewError(driver.CodeSessionNotCreated, "connect "+wsURL, err)
	}
	connectOpts := playwright.BrowserTypeConnectOptions{}
	if opts.ConnectTimeout > 0 {
		connectOpts.Timeout = millis(opts.ConnectTimeout)
	}
	browser, err := await(ctx, func() (playwright.Browser, error) {
		return pw.Firefox.Connect(wsURL, connectOpts)
	})
	if err != nil {
		_ = pw.Stop()
		return nil, driver.NewError(driver.CodeSessionNotCreated, "connect "+wsURL, err)
	}
	return open(ctx, logger, opts, pw, browser)
}

func startPlaywright(ctx context.Context, opts Options) (*playwright.Playwright, error) {
	if !opts.SkipInstall {
		installCtx, cancel := context.WithTimeout(ctx, installTimeout)
		defer cancel()
		_, err := await(installCtx, func() (struct{}, error) {
			return struct{}{}, playwright.Install(&playwright.RunOptions{Browsers: []string{"firefox"}})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to install playwright firefox: %w", err)
		}
	}
	pw, err := await(ctx, func() (*playwright.Playwright, error) { return playwright.Run() })
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}
	return pw, nil
}

func open(ctx context.Context, logger *zap.Logger, opts Options, pw *playwright.Playwright, browser playwright.Browser) (*Driver, error) {
	fail := func(err error) (*Driver, error) {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, driver.NewError(driver.CodeSessionNotCreated, "new context", err)
	}
	bctx, err := await(ctx, func() (playwright.BrowserContext, error) {
		return browser.NewContext(ContextOptions(opts))
	})
	if err != nil {
		return fail(err)
	}
	bctx.SetDefaultTimeout(float64(opts.commandTimeout().Milliseconds()))

	d := newDriver(logger, opts)
	d.pw, d.browser, d.bctx = pw, browser, bctx
	// Pages opened by the page itself (window.open, target=_blank).
	bctx.OnPage(func(p playwright.Page) { d.track(p) })

	p, err := await(ctx, bctx.NewPage)
	if err != nil {
		return fail(err)
	}
	d.mu.Lock()
	d.current = d.trackLocked(p)
	d.mu.Unlock()
	d.logger.Debug("Browser session started", zap.String("version", browser.Version()))
	return d, nil
}

func newDriver(logger *zap.Logger, opts Options) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{logger: logger.Named("firefox"), opts: opts}
}

// await runs a blocking Playwright call and gives up when ctx ends. Playwright
// calls take no context, so giving up abandons the call rather than cancelling
// it: fn keeps running in the background until the browser context's default
// timeout ends it, and its result is dropped.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		// done is buffered, so the abandoned goroutine still exits.
		var zero T
		return zero, ctx.Err()
	}
}

func (d *Driver) track(p playwright.Page) *tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.trackLocked(p)
}

// trackLocked returns the tab for p, registering it on first sight.
func (d *Driver) trackLocked(p playwright.Page) *tab {
	for _, t := range d.tabs {
		if t.page == p {
			return t
		}
	}
	t := &tab{handle: uuid.NewString(), page: p}
	d.tabs = append(d.tabs, t)
	if p != nil {
		p.OnDialog(func(dlg playwright.Dialog) { d.onDialog(t, dlg) })
	}
	return t
}

func (d *Driver) onDialog(t *tab, dlg playwright.Dialog) {
	d.mu.Lock()
	t.dialog, t.promptText = dlg, ""
	d.mu.Unlock()
	d.logger.Debug("Dialog opened", zap.String("type", dlg.Type()), zap.String("message", dlg.Message()))
}

func (d *Driver) snapshot(op string) (*tab, playwright.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return nil, nil, driver.Errorf(driver.CodeInvalidSessionID, op, "session has been quit")
	}
	if d.current == nil || d.current.closed {
		return nil, nil, driver.Errorf(driver.CodeNoSuchWindow, op, "current window was closed")
	}
	if n := len(d.frames); n > 0 {
		return d.current, d.frames[n-1], nil
	}
	return d.current, nil, nil
}

func (d *Driver) alive(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return driver.Errorf(driver.CodeInvalidSessionID, op, "session has been quit")
	}
	return nil
}

// page returns the current tab and frame for a document operation. While a
// dialog is open Playwright would block until its timeout, so this fails fast.
func (d *Driver) page(op string) (*tab, playwright.Frame, error) {
	t, frame, err := d.snapshot(op)
	if err != nil {
		return nil, nil, err
	}
	d.mu.Lock()
	open := t.dialog
	d.mu.Unlock()
	if open != nil {
		return nil, nil, driver.Errorf(driver.CodeUnexpectedAlertOpen, op, "dialog open: %q", open.Message())
	}
	if frame == nil {
		frame = t.page.MainFrame()
	}
	return t, frame, nil
}

// do runs fn bounded by ctx and translates its failure.
func (d *Driver) do(ctx context.Context, op string, fn func() error) error {
	_, err := await(ctx, func() (struct{}, error) { return struct{}{}, fn() })
	return translate(op, err)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	t, _, err := d.page("navigate")
	if err != nil {
		return err
	}
	if err := d.do(ctx, "navigate", func() error {
		_, err := t.page.Goto(url)
		return err
	}); err != nil {
		return err
	}
	d.resetFrames()
	return nil
}

func (d *Driver) Refresh(ctx context.Context) error {
	t, _, err := d.page("refresh")
	if err != nil {
		return err
	}
	if err := d.do(ctx, "refresh", func() error {
		_, err := t.page.Reload()
		return err
	}); err != nil {
		return err
	}
	d.resetFrames()
	return nil
}

func (d *Driver) resetFrames() {
	d.mu.Lock()
	d.frames = nil
	d.mu.Unlock()
}

func (d *Driver) NewTab(ctx context.Context) error {
	if err := d.alive("new tab"); err != nil {
		return err
	}
	p, err := await(ctx, d.bctx.NewPage)
	if err != nil {
		return translate("new tab", err)
	}
	t := d.track(p)
	d.logger.Debug("Tab opened", zap.String("tab", t.handle))
	return nil
}

func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	if err := d.alive("window handles"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	handles := make([]string, 0, len(d.tabs))
	for _, t := range d.tabs {
		if !t.closed {
			handles = append(handles, t.handle)
		}
	}
	return handles, nil
}

func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	if err := d.alive("switch window"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.tabs {
		if t.handle == handle && !t.closed {
			d.current, d.frames = t, nil
			return nil
		}
	}
	return driver.Errorf(driver.CodeNoSuchWindow, "switch window", "no window with handle %q", handle)
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	t, _, err := d.snapshot("close window")
	if err != nil {
		return err
	}
	if err := d.do(ctx, "close window", func() error { return t.page.Close() }); err != nil {
		return err
	}
	d.mu.Lock()
	t.closed, t.dialog = true, nil
	if d.current == t {
		d.current, d.frames = nil, nil
	}
	d.mu.Unlock()
	return nil
}

func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	if err := d.alive("delete cookies"); err != nil {
		return err
	}
	return d.do(ctx, "delete cookies", func() error { return d.bctx.ClearCookies() })
}

// MaximizeWindow resizes the viewport to the configured size. Playwright
// pages have no window state of their own.
func (d *Driver) MaximizeWindow(ctx context.Context) error {
	t, _, err := d.snapshot("maximize window")
	if err != nil {
		return err
	}
	w, h := d.opts.viewport()
	return d.do(ctx, "maximize window", func() error { return t.page.SetViewportSize(w, h) })
}

// Quit closes the browser context, the browser and the Playwright driver.
// Later calls are no-ops.
func (d *Driver) Quit(ctx context.Context) error {
	d.mu.Lock()
	if d.quit {
		d.mu.Unlock()
		return nil
	}
	d.quit = true
	d.current, d.frames = nil, nil
	d.mu.Unlock()

	start := time.Now()
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.bctx != nil {
		keep(d.do(ctx, "quit", func() error { return d.bctx.Close() }))
	}
	if d.browser != nil {
		keep(d.do(ctx, "quit", func() error { return d.browser.Close() }))
	}
	if d.pw != nil {
		keep(d.do(ctx, "quit", d.pw.Stop))
	}
	d.logger.Debug("Browser session closed", zap.Duration("took", time.Since(start)), zap.Error(firstErr))
	return firstErr
}
