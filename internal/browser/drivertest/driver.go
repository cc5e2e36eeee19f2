package drivertest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// Driver is a stateful fake browser session.
type Driver struct {
	now   func() time.Time
	start time.Time

	mu      sync.Mutex
	windows []*window
	current *window
	// path is the frame path from the current window's top document.
	path    []*frame
	nextTab int

	failures map[string][]error
	sticky   map[string]error
	calls    map[string]int

	quit      bool
	cookies   int
	maximized bool
	answer    string
}

var _ driver.Driver = (*Driver)(nil)

// New returns a driver with one empty window. now supplies the page clock;
// nil means wall time.
func New(now func() time.Time) *Driver {
	if now == nil {
		now = time.Now
	}
	w := &window{handle: "window-0", top: newDocument()}
	return &Driver{
		now:      now,
		start:    now(),
		windows:  []*window{w},
		current:  w,
		failures: make(map[string][]error),
		sticky:   make(map[string]error),
		calls:    make(map[string]int),
	}
}

// -- Page setup --

// Add registers nodes under loc in the current browsing context.
func (d *Driver) Add(loc driver.Locator, nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc := d.docLocked()
	doc.elements[loc] = append(doc.elements[loc], nodes...)
}

// Remove detaches every node under loc; handles already held go stale.
func (d *Driver) Remove(loc driver.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc := d.docLocked()
	for _, n := range doc.elements[loc] {
		n.detached = true
	}
	delete(doc.elements, loc)
}

// AddFrame appends a child frame to the current browsing context and
// returns a function that registers elements inside it.
func (d *Driver) AddFrame(name string) func(loc driver.Locator, nodes ...*Node) {
	d.mu.Lock()
	f := &frame{name: name, doc: newDocument()}
	parent := d.docLocked()
	parent.frames = append(parent.frames, f)
	d.mu.Unlock()
	return func(loc driver.Locator, nodes ...*Node) {
		d.mu.Lock()
		defer d.mu.Unlock()
		f.doc.elements[loc] = append(f.doc.elements[loc], nodes...)
	}
}

// OpenAlert schedules a dialog on the current window, opening at the given
// offset from the driver's start. kind is "alert", "confirm" or "prompt".
func (d *Driver) OpenAlert(kind, message string, at time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current.alerts = append(d.current.alerts, &alert{kind: kind, message: message, at: at})
}

// Update runs fn with the driver locked, for changing nodes in use.
func (d *Driver) Update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// -- Failure injection and inspection --

// FailNext makes the next calls of op fail with errs, in order. Ops are
// named after the capability: "find", "click", "send keys", "clear", "text",
// "attribute", "is displayed", "is enabled", "is selected", "select", "drag",
// "hover", "scroll", "switch frame", "alert text" and so on.
func (d *Driver) FailNext(op string, errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = append(d.failures[op], errs...)
}

// FailAlways makes every call of op fail with err until Recover(op).
func (d *Driver) FailAlways(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sticky[op] = err
}

// Recover clears injected failures for op.
func (d *Driver) Recover(op string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sticky, op)
	delete(d.failures, op)
}

// Calls returns how many times op was invoked, failures included.
func (d *Driver) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// URL returns the current window's address.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return ""
	}
	return d.current.url
}

// Quitted reports whether Quit has been called.
func (d *Driver) Quitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quit
}

// FramePath returns the names of the frames entered from the top document.
func (d *Driver) FramePath() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.path))
	for _, f := range d.path {
		out = append(out, f.name)
	}
	return out
}

// AlertAnswer returns the text submitted to the last accepted prompt.
func (d *Driver) AlertAnswer() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.answer
}

// -- internals --

func (d *Driver) elapsed() time.Duration { return d.now().Sub(d.start) }

func (d *Driver) docLocked() *document {
	if n := len(d.path); n > 0 {
		return d.path[n-1].doc
	}
	return d.current.top
}

// enter records a call of op and returns its injected failure, if any.
func (d *Driver) enter(op string) error {
	d.calls[op]++
	if err, ok := d.sticky[op]; ok {
		return err
	}
	if q := d.failures[op]; len(q) > 0 {
		d.failures[op] = q[1:]
		return q[0]
	}
	if d.quit {
		return driver.Errorf(driver.CodeInvalidSessionID, op, "session has been quit")
	}
	return nil
}

// enterWindow additionally requires a current window.
func (d *Driver) enterWindow(op string) error {
	if err := d.enter(op); err != nil {
		return err
	}
	if d.current == nil || d.current.closed {
		return driver.Errorf(driver.CodeNoSuchWindow, op, "current window was closed")
	}
	return nil
}

// openAlert returns the earliest dialog that has opened and not been handled.
func (d *Driver) openAlert() *alert {
	if d.current == nil {
		return nil
	}
	elapsed := d.elapsed()
	for _, a := range d.current.alerts {
		if a.at <= elapsed {
			return a
		}
	}
	return nil
}

// enterPage additionally fails while a dialog blocks the page.
func (d *Driver) enterPage(op string) error {
	if err := d.enterWindow(op); err != nil {
		return err
	}
	if a := d.openAlert(); a != nil {
		return driver.Errorf(driver.CodeUnexpectedAlertOpen, op, "dialog open: %q", a.message)
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterPage("navigate"); err != nil {
		return err
	}
	d.current.url, d.path = url, nil
	return nil
}

func (d *Driver) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterPage("refresh"); err != nil {
		return err
	}
	d.path = nil
	return nil
}

func (d *Driver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterPage("find"); err != nil {
		return nil, err
	}
	if err := loc.Validate(); err != nil {
		return nil, driver.NewError(driver.CodeInvalidSelector, "find", err)
	}
	elapsed := d.elapsed()
	var out []driver.Element
	for _, n := range d.docLocked().elements[loc] {
		if !n.detached && n.AppearAt <= elapsed {
			out = append(out, &element{d: d, n: n})
		}
	}
	return out, nil
}

func (d *Driver) SwitchToFrameIndex(ctx context.Context, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterPage("switch frame"); err != nil {
		return err
	}
	frames := d.docLocked().frames
	if index < 0 || index >= len(frames) {
		return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "frame index %d out of range (%d frames)", index, len(frames))
	}
	d.path = append(d.path, frames[index])
	return nil
}

func (d *Driver) SwitchToFrameName(ctx context.Context, nameOrID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterPage("switch frame"); err != nil {
		return err
	}
	for _, f := range d.docLocked().frames {
		if f.name == nameOrID {
			d.path = append(d.path, f)
			return nil
		}
	}
	return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "no frame named %q", nameOrID)
}

func (d *Driver) SwitchToDefaultContent(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterWindow("default content"); err != nil {
		return err
	}
	d.path = nil
	return nil
}

func (d *Driver) dialog(op string) (*alert, error) {
	if err := d.enterWindow(op); err != nil {
		return nil, err
	}
	a := d.openAlert()
	if a == nil {
		return nil, driver.Errorf(driver.CodeNoSuchAlert, op, "no dialog is open")
	}
	return a, nil
}

func (d *Driver) AlertText(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, err := d.dialog("alert text")
	if err != nil {
		return "", err
	}
	return a.message, nil
}

func (d *Driver) SendAlertText(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, err := d.dialog("send alert text")
	if err != nil {
		return err
	}
	if a.kind != "prompt" {
		return driver.Errorf(driver.CodeElementNotInteractable, "send alert text", "%s dialog does not accept text", a.kind)
	}
	a.answer = text
	return nil
}

func (d *Driver) closeAlert(op string, accept bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, err := d.dialog(op)
	if err != nil {
		return err
	}
	if accept && a.kind == "prompt" {
		d.answer = a.answer
	}
	alerts := d.current.alerts
	for i := range alerts {
		if alerts[i] == a {
			d.current.alerts = append(alerts[:i:i], alerts[i+1:]...)
			break
		}
	}
	return nil
}

func (d *Driver) AcceptAlert(ctx context.Context) error  { return d.closeAlert("accept alert", true) }
func (d *Driver) DismissAlert(ctx context.Context) error { return d.closeAlert("dismiss alert", false) }

func (d *Driver) NewTab(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("new tab"); err != nil {
		return err
	}
	d.nextTab++
	d.windows = append(d.windows, &window{handle: "window-" + strconv.Itoa(d.nextTab), top: newDocument()})
	return nil
}

func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("window handles"); err != nil {
		return nil, err
	}
	var out []string
	for _, w := range d.windows {
		if !w.closed {
			out = append(out, w.handle)
		}
	}
	return out, nil
}

func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("switch window"); err != nil {
		return err
	}
	for _, w := range d.windows {
		if w.handle == handle && !w.closed {
			d.current, d.path = w, nil
			return nil
		}
	}
	return driver.Errorf(driver.CodeNoSuchWindow, "switch window", "no window with handle %q", handle)
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterWindow("close window"); err != nil {
		return err
	}
	d.current.closed = true
	d.current, d.path = nil, nil
	return nil
}

// CurrentHandle returns the handle of the current window, or "".
func (d *Driver) CurrentHandle() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return ""
	}
	return d.current.handle
}

func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterWindow("delete cookies"); err != nil {
		return err
	}
	d.cookies++
	return nil
}

func (d *Driver) MaximizeWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enterWindow("maximize"); err != nil {
		return err
	}
	d.maximized = true
	return nil
}

// Maximized reports whether MaximizeWindow succeeded.
func (d *Driver) Maximized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maximized
}

func (d *Driver) Quit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["quit"]++
	if err, ok := d.sticky["quit"]; ok {
		return err
	}
	d.quit = true
	return nil
}
