// Package chromium drives Chrome, Edge and Opera over the DevTools protocol
// using chromedp. A Driver owns one browser process (or one remote browser
// connection) and tracks the current tab, the current frame path and any
// open JavaScript dialog.
package chromium

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

type tab struct {
	id     target.ID
	ctx    context.Context
	cancel context.CancelFunc
	// primary is the tab created with the browser. Cancelling its context
	// shuts the whole browser down, so closing it only closes the page.
	primary bool
	closed  bool

	dialog     *page.EventJavascriptDialogOpening
	promptText string
}

// Driver implements driver.Driver on top of chromedp.
type Driver struct {
	logger      *zap.Logger
	timeout     time.Duration
	allocCancel context.CancelFunc

	mu      sync.Mutex
	primary *tab
	tabs    []*tab
	current *tab
	// frames is the path from the top document to the current frame.
	frames []*cdp.Node
	quit   bool
}

var _ driver.Driver = (*Driver)(nil)

// Launch starts a local browser process.
func Launch(ctx context.Context, logger *zap.Logger, opts Options) (*Driver, error) {
	allocOpts, err := AllocatorOptions(opts)
	if err != nil {
		return nil, err
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	d, err := start(ctx, logger, allocCtx, allocCancel, opts)
	if err != nil {
		return nil, driver.NewError(driver.CodeSessionNotCreated, "launch "+string(opts.Kind), err)
	}
	return d, nil
}

// Connect attaches to a browser already running behind a DevTools websocket,
// such as a grid node.
func Connect(ctx context.Context, logger *zap.Logger, wsURL string, opts Options) (*Driver, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), wsURL)
	d, err := start(ctx, logger, allocCtx, allocCancel, opts)
	if err != nil {
		return nil, driver.NewError(driver.CodeSessionNotCreated, "connect "+wsURL, err)
	}
	return d, nil
}

func start(ctx context.Context, logger *zap.Logger, allocCtx context.Context, allocCancel context.CancelFunc, opts Options) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("chromium")
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	sugar := logger.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	d := &Driver{logger: logger, timeout: timeout, allocCancel: allocCancel}
	t := &tab{ctx: tabCtx, cancel: tabCancel, primary: true}
	d.listen(t)

	if err := allocate(ctx, tabCtx, func(c context.Context) error { return chromedp.Run(c) }); err != nil {
		tabCancel()
		allocCancel()
		return nil, err
	}
	t.id = chromedp.FromContext(tabCtx).Target.TargetID

	d.primary, d.current, d.tabs = t, t, []*tab{t}
	logger.Debug("Browser session started", zap.String("tab", string(t.id)))
	return d, nil
}

// listen records dialog state for t. chromedp delivers events on its own
// goroutine, so the handler only touches state under the driver's lock.
func (d *Driver) listen(t *tab) {
	chromedp.ListenTarget(t.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			d.mu.Lock()
			t.dialog, t.promptText = e, ""
			d.mu.Unlock()
			d.logger.Debug("Dialog opened", zap.String("type", string(e.Type)), zap.String("message", e.Message))
		case *page.EventJavascriptDialogClosed:
			d.mu.Lock()
			t.dialog, t.promptText = nil, ""
			d.mu.Unlock()
		}
	})
}

// snapshot returns the current tab and frame path.
func (d *Driver) snapshot(op string) (*tab, []*cdp.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return nil, nil, driver.Errorf(driver.CodeInvalidSessionID, op, "session has been quit")
	}
	if d.current == nil || d.current.closed {
		return nil, nil, driver.Errorf(driver.CodeNoSuchWindow, op, "current window was closed")
	}
	return d.current, append([]*cdp.Node(nil), d.frames...), nil
}

// alive fails only once the session has been quit; it does not need a
// current window.
func (d *Driver) alive(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return driver.Errorf(driver.CodeInvalidSessionID, op, "session has been quit")
	}
	return nil
}

// run executes actions on the current tab regardless of dialog state.
func (d *Driver) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	t, _, err := d.snapshot(op)
	if err != nil {
		return err
	}
	return d.runOn(ctx, t, op, actions...)
}

func (d *Driver) runOn(ctx context.Context, t *tab, op string, actions ...chromedp.Action) error {
	runCtx, cancel := combine(t.ctx, ctx, d.timeout)
	defer cancel()
	return translate(op, chromedp.Run(runCtx, actions...))
}

// runPage executes actions that touch the document. While a dialog is open
// the page's script context is blocked, so those fail fast.
func (d *Driver) runPage(ctx context.Context, op string, actions ...chromedp.Action) error {
	t, _, err := d.snapshot(op)
	if err != nil {
		return err
	}
	d.mu.Lock()
	open := t.dialog
	d.mu.Unlock()
	if open != nil {
		return driver.Errorf(driver.CodeUnexpectedAlertOpen, op, "dialog open: %q", open.Message)
	}
	return d.runOn(ctx, t, op, actions...)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.runPage(ctx, "navigate", chromedp.Navigate(url)); err != nil {
		return err
	}
	d.resetFrames()
	return nil
}

func (d *Driver) Refresh(ctx context.Context) error {
	if err := d.runPage(ctx, "refresh", chromedp.Reload()); err != nil {
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
	tabCtx, tabCancel := chromedp.NewContext(d.primary.ctx)
	t := &tab{ctx: tabCtx, cancel: tabCancel}
	d.listen(t)
	if err := allocate(ctx, tabCtx, func(c context.Context) error { return chromedp.Run(c) }); err != nil {
		tabCancel()
		return translate("new tab", err)
	}
	t.id = chromedp.FromContext(tabCtx).Target.TargetID

	d.mu.Lock()
	d.tabs = append(d.tabs, t)
	d.mu.Unlock()
	d.logger.Debug("Tab opened", zap.String("tab", string(t.id)))
	return nil
}

// WindowHandles lists the tabs this driver opened, in opening order, followed
// by page targets opened by the page itself (window.open) in ID order.
func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	if err := d.alive("window handles"); err != nil {
		return nil, err
	}
	runCtx, cancel := combine(d.primary.ctx, ctx, d.timeout)
	defer cancel()
	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		return nil, translate("window handles", err)
	}

	live := make(map[target.ID]bool, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			live[info.TargetID] = true
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	var handles []string
	known := make(map[target.ID]bool, len(d.tabs))
	for _, t := range d.tabs {
		known[t.id] = true
		if !t.closed && live[t.id] {
			handles = append(handles, string(t.id))
		}
	}
	var extra []string
	for id := range live {
		if !known[id] {
			extra = append(extra, string(id))
		}
	}
	sort.Strings(extra)
	return append(handles, extra...), nil
}

func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	if err := d.alive("switch window"); err != nil {
		return err
	}
	id := target.ID(handle)

	d.mu.Lock()
	for _, t := range d.tabs {
		if t.id == id && !t.closed {
			d.current, d.frames = t, nil
			d.mu.Unlock()
			return nil
		}
	}
	d.mu.Unlock()

	// A page opened by the page itself: attach to it.
	tabCtx, tabCancel := chromedp.NewContext(d.primary.ctx, chromedp.WithTargetID(id))
	t := &tab{id: id, ctx: tabCtx, cancel: tabCancel}
	d.listen(t)
	if err := allocate(ctx, tabCtx, func(c context.Context) error { return chromedp.Run(c) }); err != nil {
		tabCancel()
		return driver.NewError(driver.CodeNoSuchWindow, "switch window", err)
	}

	d.mu.Lock()
	d.tabs = append(d.tabs, t)
	d.current, d.frames = t, nil
	d.mu.Unlock()
	return nil
}

// CloseWindow closes the current tab. Afterwards there is no current window
// until SwitchToWindow is called.
func (d *Driver) CloseWindow(ctx context.Context) error {
	t, _, err := d.snapshot("close window")
	if err != nil {
		return err
	}
	if err := d.runOn(ctx, t, "close window", page.Close()); err != nil {
		return err
	}
	if !t.primary {
		t.cancel()
	}
	d.mu.Lock()
	t.closed = true
	if d.current == t {
		d.current, d.frames = nil, nil
	}
	d.mu.Unlock()
	return nil
}

func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	return d.run(ctx, "delete cookies", network.ClearBrowserCookies())
}

func (d *Driver) MaximizeWindow(ctx context.Context) error {
	return d.run(ctx, "maximize window", chromedp.ActionFunc(func(c context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(c)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(windowID, &cdpbrowser.Bounds{WindowState: cdpbrowser.WindowStateMaximized}).Do(c)
	}))
}

// Quit closes every tab and the browser. Later calls are no-ops.
func (d *Driver) Quit(ctx context.Context) error {
	d.mu.Lock()
	if d.quit {
		d.mu.Unlock()
		return nil
	}
	d.quit = true
	tabs := d.tabs
	d.current, d.frames = nil, nil
	d.mu.Unlock()

	for _, t := range tabs {
		if !t.primary {
			t.cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(d.primary.ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	d.primary.cancel()
	d.allocCancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		return translate("quit", err)
	}
	d.logger.Debug("Browser session closed")
	return nil
}
