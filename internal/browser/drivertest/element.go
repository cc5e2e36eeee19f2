package drivertest

import (
	"context"
	"strconv"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

type element struct {
	d *Driver
	n *Node
}

var _ driver.Element = (*element)(nil)

// enter records op and checks the element is still attached.
func (e *element) enter(op string) error {
	if err := e.d.enterPage(op); err != nil {
		return err
	}
	if e.n.detached {
		return driver.Errorf(driver.CodeStaleElement, op, "element is no longer attached to the DOM")
	}
	return nil
}

func (e *element) displayed() bool {
	return e.n.Displayed && e.n.VisibleAt <= e.d.elapsed()
}

func (e *element) Click(ctx context.Context) error {
	e.d.mu.Lock()
	if err := e.enter("click"); err != nil {
		e.d.mu.Unlock()
		return err
	}
	switch {
	case !e.displayed():
		e.d.mu.Unlock()
		return driver.Errorf(driver.CodeElementNotVisible, "click", "element is not displayed")
	case e.n.Obscured:
		e.d.mu.Unlock()
		return driver.Errorf(driver.CodeElementClickIntercepted, "click", "another element would receive the click")
	}
	e.n.Clicks++
	hook := e.n.OnClick
	e.d.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// SendKeys appends text at the end of the value. Backspace deletes the last
// character; arrow keys step a range input.
func (e *element) SendKeys(ctx context.Context, text string) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("send keys"); err != nil {
		return err
	}
	slider := e.n.Attrs["type"] == "range"
	if !e.displayed() || (!e.n.Editable && !slider) {
		return driver.Errorf(driver.CodeElementNotInteractable, "send keys", "element is not reachable by keyboard")
	}
	if !e.n.Enabled {
		return driver.Errorf(driver.CodeInvalidElementState, "send keys", "element is disabled")
	}

	value := []rune(e.n.Value)
	for _, r := range text {
		key := string(r)
		e.n.Keys = append(e.n.Keys, key)
		switch key {
		case driver.KeyBackspace:
			if len(value) > 0 && !slider {
				value = value[:len(value)-1]
			}
		case driver.KeyArrowRight, driver.KeyArrowUp:
			if slider {
				value = []rune(step(string(value), 1))
			}
		case driver.KeyArrowLeft, driver.KeyArrowDown:
			if slider {
				value = []rune(step(string(value), -1))
			}
		case driver.KeyDelete, driver.KeyTab, driver.KeyEnter, driver.KeyEscape:
		default:
			if !slider {
				value = append(value, r)
			}
		}
	}
	e.n.Value = string(value)
	return nil
}

func step(value string, delta int) string {
	n, err := strconv.Atoi(value)
	if err != nil {
		n = 0
	}
	return strconv.Itoa(n + delta)
}

func (e *element) Clear(ctx context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("clear"); err != nil {
		return err
	}
	if !e.n.Editable || !e.n.Enabled {
		return driver.Errorf(driver.CodeInvalidElementState, "clear", "element is not editable")
	}
	e.n.Value = ""
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("text"); err != nil {
		return "", err
	}
	if !e.displayed() {
		return "", nil
	}
	return e.n.Text, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("attribute"); err != nil {
		return "", err
	}
	if name == "value" && (e.n.Tag == "input" || e.n.Tag == "select" || e.n.Tag == "textarea") {
		return e.n.Value, nil
	}
	return e.n.Attrs[name], nil
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("is displayed"); err != nil {
		return false, err
	}
	return e.displayed(), nil
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("is enabled"); err != nil {
		return false, err
	}
	return e.n.Enabled, nil
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("is selected"); err != nil {
		return false, err
	}
	return e.n.Selected, nil
}

func (e *element) SelectByValue(ctx context.Context, value string) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("select"); err != nil {
		return err
	}
	if e.n.Tag != "select" {
		return driver.Errorf(driver.CodeInvalidElementState, "select", "element is not a select")
	}
	for _, v := range e.n.Options {
		if v == value {
			e.n.Value = value
			return nil
		}
	}
	return driver.Errorf(driver.CodeNoSuchElement, "select", "no option with value %q", value)
}

func (e *element) DragBy(ctx context.Context, dx, dy int) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("drag"); err != nil {
		return err
	}
	if !e.displayed() {
		return driver.Errorf(driver.CodeMoveTargetOutOfBounds, "drag", "element has no layout box")
	}
	e.n.Drags = append(e.n.Drags, [2]int{dx, dy})
	return nil
}

func (e *element) Hover(ctx context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("hover"); err != nil {
		return err
	}
	if !e.displayed() {
		return driver.Errorf(driver.CodeElementNotVisible, "hover", "element is not displayed")
	}
	e.n.Hovers++
	return nil
}

func (e *element) ScrollIntoView(ctx context.Context, center bool) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.enter("scroll"); err != nil {
		return err
	}
	e.n.Scrolls++
	return nil
}
