package interaction

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

// GetText returns the rendered text of loc once it exists.
func (i *Interactions) GetText(ctx context.Context, loc driver.Locator, description string) (string, error) {
	i.logger.Debug("GetText - reading element text", zap.String("target", description))
	el, err := i.presentDefault(ctx, loc)
	if err != nil {
		return "", i.fail(ctx, "GetText", description, err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", i.fail(ctx, "GetText", description, err)
	}
	i.logger.Debug("GetText - text read", zap.String("target", description), zap.String("text", text))
	return text, nil
}

// GetAttribute returns attr of loc once it exists. A missing attribute reads
// as "".
func (i *Interactions) GetAttribute(ctx context.Context, loc driver.Locator, attr, description string) (string, error) {
	i.logger.Debug("GetAttribute - reading element attribute", zap.String("target", description), zap.String("attribute", attr))
	el, err := i.presentDefault(ctx, loc)
	if err != nil {
		return "", i.fail(ctx, "GetAttribute", description, err)
	}
	value, err := el.Attribute(ctx, attr)
	if err != nil {
		return "", i.fail(ctx, "GetAttribute", description, err)
	}
	i.logger.Debug("GetAttribute - attribute read", zap.String("target", description), zap.String("value", value))
	return value, nil
}

// IsRadioSelected reports whether the radio button or checkbox at loc is
// checked.
func (i *Interactions) IsRadioSelected(ctx context.Context, loc driver.Locator, description string) (bool, error) {
	i.logger.Debug("IsRadioSelected - reading selection", zap.String("target", description))
	el, err := i.presentDefault(ctx, loc)
	if err != nil {
		return false, i.fail(ctx, "IsRadioSelected", description, err)
	}
	ok, err := el.IsSelected(ctx)
	if err != nil {
		return false, i.fail(ctx, "IsRadioSelected", description, err)
	}
	return ok, nil
}

// SizeListElements counts the elements matching loc right now. It does not
// wait; no match counts zero.
func (i *Interactions) SizeListElements(ctx context.Context, loc driver.Locator, description string) (int, error) {
	i.logger.Debug("SizeListElements - counting elements", zap.String("target", description))
	d, err := i.session(ctx)
	if err != nil {
		return 0, i.fail(ctx, "SizeListElements", description, err)
	}
	elements, err := d.FindElements(ctx, loc)
	if err != nil {
		return 0, i.fail(ctx, "SizeListElements", description, err)
	}
	return len(elements), nil
}

// PageValidation confirms the current page by waiting for loc and checking
// its text contains expected. A mismatch is reported as ElementNotVisible:
// the element the page is recognised by is not showing what it should.
func (i *Interactions) PageValidation(ctx context.Context, loc driver.Locator, expected, description string) error {
	i.logger.Debug("PageValidation - validating current page", zap.String("target", description))
	return i.pageValidation(ctx, "PageValidation", loc, expected, description)
}

func (i *Interactions) pageValidation(ctx context.Context, op string, loc driver.Locator, expected, description string) error {
	el, err := i.readyDefault(ctx, loc)
	if err != nil {
		return i.fail(ctx, op, description, err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return i.fail(ctx, op, description, err)
	}
	if !strings.Contains(text, expected) {
		return i.failf(ctx, failure.ElementNotVisible, op, description,
			"page validation failed: %q does not contain %q", text, expected)
	}
	return nil
}
