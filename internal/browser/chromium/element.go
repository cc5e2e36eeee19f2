package chromium

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// callOn invokes fn with `this` bound to the node and decodes its
// by-value result into out, if out is non-nil.
func (d *Driver) callOn(ctx context.Context, op string, id cdp.NodeID, fn string, out interface{}) error {
	return d.runPage(ctx, op, chromedp.ActionFunc(func(c context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(c)
		if err != nil {
			return err
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(c) }()

		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(c)
		if err != nil {
			return err
		}
		if exc != nil {
			return newScriptError(exc)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

type element struct {
	d    *Driver
	node *cdp.Node
}

var _ driver.Element = (*element)(nil)

func (e *element) call(ctx context.Context, op, fn string, out interface{}) error {
	return e.d.callOn(ctx, op, e.node.NodeID, fn, out)
}

// clickableJS scrolls the element to the centre of the viewport and hit tests
// its centre point.
const clickableJS = `function() {
	if (!this.isConnected) { return 'detached'; }
	const r0 = this.getBoundingClientRect();
	const style = getComputedStyle(this);
	if (style.visibility !== 'visible' || r0.width === 0 || r0.height === 0) { return 'hidden'; }
	this.scrollIntoView({block: 'center', inline: 'center'});
	const r = this.getBoundingClientRect();
	const hit = this.ownerDocument.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	if (hit && hit !== this && !this.contains(hit)) { return 'obscured'; }
	return 'ok';
}`

func (e *element) checkClickable(ctx context.Context, op string) error {
	var state string
	if err := e.call(ctx, op, clickableJS, &state); err != nil {
		return err
	}
	switch state {
	case "ok":
		return nil
	case "detached":
		return driver.Errorf(driver.CodeStaleElement, op, "element is detached")
	case "hidden":
		return driver.Errorf(driver.CodeElementNotVisible, op, "element is hidden")
	case "obscured":
		return driver.Errorf(driver.CodeElementClickIntercepted, op, "element is obscured")
	}
	return driver.Errorf(driver.CodeUnknownError, op, "unexpected clickability %q", state)
}

func (e *element) Click(ctx context.Context) error {
	if err := e.checkClickable(ctx, "click"); err != nil {
		return err
	}
	return e.d.runPage(ctx, "click", chromedp.MouseClickNode(e.node))
}

// prepareTypingJS focuses the element and puts the caret at the end of its
// value, the position keystrokes are appended at.
const prepareTypingJS = `function() {
	if (!this.isConnected) { return 'detached'; }
	if (this.disabled || this.readOnly) { return 'readonly'; }
	this.focus();
	if (this.ownerDocument.activeElement !== this) { return 'unfocusable'; }
	if (typeof this.setSelectionRange === 'function' && typeof this.value === 'string') {
		try { this.setSelectionRange(this.value.length, this.value.length); } catch (e) {}
	}
	return 'ok';
}`

var keyMap = map[string]string{
	driver.KeyBackspace:  kb.Backspace,
	driver.KeyTab:        kb.Tab,
	driver.KeyEnter:      kb.Enter,
	driver.KeyEscape:     kb.Escape,
	driver.KeyArrowLeft:  kb.ArrowLeft,
	driver.KeyArrowUp:    kb.ArrowUp,
	driver.KeyArrowRight: kb.ArrowRight,
	driver.KeyArrowDown:  kb.ArrowDown,
	driver.KeyDelete:     kb.Delete,
}

// nativeKeys rewrites the portable special keys into chromedp's key names.
func nativeKeys(text string) string {
	var b strings.Builder
	for _, r := range text {
		if k, ok := keyMap[string(r)]; ok {
			b.WriteString(k)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	var state string
	if err := e.call(ctx, "send keys", prepareTypingJS, &state); err != nil {
		return err
	}
	switch state {
	case "ok":
	case "detached":
		return driver.Errorf(driver.CodeStaleElement, "send keys", "element is detached")
	case "readonly":
		return driver.Errorf(driver.CodeInvalidElementState, "send keys", "element is disabled or read-only")
	default:
		return driver.Errorf(driver.CodeElementNotInteractable, "send keys", "element is not focusable")
	}
	if text == "" {
		return nil
	}
	return e.d.runPage(ctx, "send keys", chromedp.KeyEvent(nativeKeys(text)))
}

const clearJS = `function() {
	if (this.disabled || this.readOnly) { throw new Error('invalid element state: element is disabled or read-only'); }
	if (typeof this.value === 'string') {
		this.value = '';
	} else if (this.isContentEditable) {
		this.textContent = '';
	} else {
		throw new Error('invalid element state: element is not editable');
	}
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
}`

func (e *element) Clear(ctx context.Context) error {
	return e.call(ctx, "clear", clearJS, nil)
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.call(ctx, "text", `function() { return this.innerText !== undefined ? this.innerText : this.textContent; }`, &text)
	return text, err
}

const attributeJS = `function() {
	const name = %s;
	if (name === 'value' && typeof this.value === 'string') { return this.value; }
	if ((name === 'checked' || name === 'selected') && typeof this[name] === 'boolean') { return this[name] ? 'true' : null; }
	return this.getAttribute(name);
}`

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	var value *string
	if err := e.call(ctx, "attribute", fmt.Sprintf(attributeJS, jsonEncode(name)), &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

const displayedJS = `function() {
	if (!this.isConnected) { return false; }
	const style = getComputedStyle(this);
	if (style.display === 'none' || style.visibility !== 'visible' || Number(style.opacity) === 0) { return false; }
	const r = this.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, "is displayed", displayedJS, &ok)
	return ok, err
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, "is enabled", `function() { return !(this.disabled || (this.closest && this.closest('fieldset[disabled]'))); }`, &ok)
	return ok, err
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, "is selected", `function() { return !!(this.checked || this.selected); }`, &ok)
	return ok, err
}

const selectByValueJS = `function() {
	const value = %s;
	if (this.tagName !== 'SELECT') { throw new Error('invalid element state: element is not a select'); }
	const option = Array.from(this.options).find(o => o.value === value);
	if (!option) { throw new Error('no such element: no option with value ' + JSON.stringify(value)); }
	if (option.disabled) { throw new Error('invalid element state: option is disabled'); }
	option.selected = true;
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
}`

func (e *element) SelectByValue(ctx context.Context, value string) error {
	return e.call(ctx, "select by value", fmt.Sprintf(selectByValueJS, jsonEncode(value)), nil)
}

// center returns the midpoint of the node's first content quad.
func center(c context.Context, id cdp.NodeID) (float64, float64, error) {
	quads, err := dom.GetContentQuads().WithNodeID(id).Do(c)
	if err != nil {
		return 0, 0, err
	}
	if len(quads) == 0 || len(quads[0]) < 8 {
		return 0, 0, driver.Errorf(driver.CodeElementNotVisible, "locate", "element has no layout box")
	}
	q := quads[0]
	return (q[0] + q[2] + q[4] + q[6]) / 4, (q[1] + q[3] + q[5] + q[7]) / 4, nil
}

func (e *element) DragBy(ctx context.Context, dx, dy int) error {
	return e.d.runPage(ctx, "drag", chromedp.ActionFunc(func(c context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(c); err != nil {
			return err
		}
		x, y, err := center(c, e.node.NodeID)
		if err != nil {
			return err
		}
		tx, ty := x+float64(dx), y+float64(dy)
		return chromedp.Tasks{
			chromedp.MouseEvent(input.MouseMoved, x, y),
			chromedp.MouseEvent(input.MousePressed, x, y, chromedp.ButtonLeft, chromedp.ClickCount(1)),
			chromedp.MouseEvent(input.MouseMoved, tx, ty, chromedp.ButtonLeft),
			chromedp.MouseEvent(input.MouseReleased, tx, ty, chromedp.ButtonLeft, chromedp.ClickCount(1)),
		}.Do(c)
	}))
}

func (e *element) Hover(ctx context.Context) error {
	return e.d.runPage(ctx, "hover", chromedp.ActionFunc(func(c context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(c); err != nil {
			return err
		}
		x, y, err := center(c, e.node.NodeID)
		if err != nil {
			return err
		}
		return chromedp.MouseEvent(input.MouseMoved, x, y).Do(c)
	}))
}

func (e *element) ScrollIntoView(ctx context.Context, centered bool) error {
	block := "start"
	if centered {
		block = "center"
	}
	return e.call(ctx, "scroll", fmt.Sprintf(`function() { this.scrollIntoView({block: %s, inline: 'nearest'}); }`, jsonEncode(block)), nil)
}
