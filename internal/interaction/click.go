package interaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

// Click waits for loc to be displayed and enabled, then clicks it once.
func (i *Interactions) Click(ctx context.Context, loc driver.Locator, description string) error {
	i.logger.Debug("Click - clicking element", zap.String("target", description), zap.Stringer("locator", loc))
	if err := i.click(ctx, loc, i.timing.Timeout); err != nil {
		return i.fail(ctx, "Click", description, err)
	}
	return nil
}

// ClickWithin is Click with its own readiness window.
func (i *Interactions) ClickWithin(ctx context.Context, loc driver.Locator, timeout time.Duration, description string) error {
	i.logger.Debug("ClickWithin - clicking element", zap.String("target", description), zap.Duration("timeout", timeout))
	if err := i.click(ctx, loc, timeout); err != nil {
		return i.fail(ctx, "ClickWithin", description, err)
	}
	return nil
}

func (i *Interactions) click(ctx context.Context, loc driver.Locator, timeout time.Duration) error {
	d, err := i.session(ctx)
	if err != nil {
		return err
	}
	policy, err := i.policy(timeout)
	if err != nil {
		return err
	}
	el, err := i.ready(ctx, d, policy, loc)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}

// ClickByAttribute clicks the first element whose attr equals value.
func (i *Interactions) ClickByAttribute(ctx context.Context, attr, value string) error {
	i.logger.Debug("ClickByAttribute - clicking element by attribute", zap.String("attribute", attr), zap.String("value", value))
	if err := i.click(ctx, ByAttribute(attr, value), i.timing.Timeout); err != nil {
		return i.fail(ctx, "ClickByAttribute", attr, err)
	}
	return nil
}

// ClickByText clicks the first element whose own text contains text.
func (i *Interactions) ClickByText(ctx context.Context, text string) error {
	i.logger.Debug("ClickByText - clicking element by text", zap.String("target", text))
	if err := i.click(ctx, ByText(text), i.timing.Timeout); err != nil {
		return i.fail(ctx, "ClickByText", text, err)
	}
	return nil
}

// ClickByNormalizeText clicks the first element whose whitespace-normalised
// own text equals text.
func (i *Interactions) ClickByNormalizeText(ctx context.Context, text string) error {
	i.logger.Debug("ClickByNormalizeText - clicking element by normalised text", zap.String("target", text))
	if err := i.click(ctx, ByNormalizedText(text), i.timing.Timeout); err != nil {
		return i.fail(ctx, "ClickByNormalizeText", text, err)
	}
	return nil
}

// RandomClickList clicks one element of those matching loc, drawn uniformly
// from [0, n-1). The last element is never picked unless it is the only one.
func (i *Interactions) RandomClickList(ctx context.Context, loc driver.Locator, description string) error {
	i.logger.Debug("RandomClickList - clicking a random element", zap.String("target", description))
	d, err := i.session(ctx)
	if err != nil {
		return i.fail(ctx, "RandomClickList", description, err)
	}
	elements, err := d.FindElements(ctx, loc)
	if err != nil {
		return i.fail(ctx, "RandomClickList", description, err)
	}
	n := len(elements)
	if n == 0 {
		return i.failf(ctx, failure.ElementNotFound, "RandomClickList", description, "no element matches %s", loc)
	}
	idx := pickIndex(i.rng.Intn, n)
	i.logger.Debug("RandomClickList - selected element", zap.Int("count", n), zap.Int("index", idx))
	if err := elements[idx].Click(ctx); err != nil {
		return i.fail(ctx, "RandomClickList", description, err)
	}
	return nil
}

// pickIndex draws from [0, n-1); n < 2 yields 0.
func pickIndex(intn func(int) int, n int) int {
	if n < 2 {
		return 0
	}
	return intn(n - 1)
}

// ByAttribute matches any element whose attribute attr equals value.
func ByAttribute(attr, value string) driver.Locator {
	return driver.XPath(fmt.Sprintf("//*[@%s=%s]", attr, xpathLiteral(value)))
}

// ByText matches any element whose own text contains text.
func ByText(text string) driver.Locator {
	return driver.XPath(fmt.Sprintf("//*[contains(text(), %s)]", xpathLiteral(text)))
}

// ByNormalizedText matches any element whose own text, with whitespace
// normalised, equals text.
func ByNormalizedText(text string) driver.Locator {
	return driver.XPath(fmt.Sprintf("//*[normalize-space(text())=%s]", xpathLiteral(text)))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for n, p := range parts {
		if n > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
