package interaction

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// Write types text into loc once it is ready, appending to what is there.
func (i *Interactions) Write(ctx context.Context, loc driver.Locator, text, description string) error {
	i.logger.Debug("Write - writing into element", zap.String("target", description), zap.Int("length", len(text)))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.SendKeys(ctx, text)
	}
	if err != nil {
		return i.fail(ctx, "Write", description, err)
	}
	return nil
}

// WriteSlowly clears loc and types text one character at a time, paced at
// the configured keystroke interval, for fields that react to every key.
func (i *Interactions) WriteSlowly(ctx context.Context, loc driver.Locator, text, description string) error {
	i.logger.Debug("WriteSlowly - writing into element key by key", zap.String("target", description),
		zap.Duration("interval", i.timing.KeystrokeInterval))
	if err := i.writeSlowly(ctx, loc, text); err != nil {
		return i.fail(ctx, "WriteSlowly", description, err)
	}
	return nil
}

func (i *Interactions) writeSlowly(ctx context.Context, loc driver.Locator, text string) error {
	el, err := i.readyDefault(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	limiter := rate.NewLimiter(rate.Every(i.timing.KeystrokeInterval), 1)
	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := el.SendKeys(ctx, string(r)); err != nil {
			return err
		}
	}
	return nil
}

// ClearAndWrite deletes len(text) characters from the end of loc's value and
// then types text. The deletion count comes from the text being written, not
// from what the field holds: a field holding more characters keeps the
// surplus in front of text.
func (i *Interactions) ClearAndWrite(ctx context.Context, loc driver.Locator, text, description string) error {
	i.logger.Debug("ClearAndWrite - replacing element text", zap.String("target", description))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.SendKeys(ctx, backspaces(text))
	}
	if err == nil {
		err = el.SendKeys(ctx, text)
	}
	if err != nil {
		return i.fail(ctx, "ClearAndWrite", description, err)
	}
	return nil
}

// Backspace sends one backspace per character of text into loc.
func (i *Interactions) Backspace(ctx context.Context, loc driver.Locator, text string) error {
	i.logger.Debug("Backspace - deleting text", zap.Int("count", len([]rune(text))))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.SendKeys(ctx, backspaces(text))
	}
	if err != nil {
		return i.fail(ctx, "Backspace", text, err)
	}
	return nil
}

func backspaces(text string) string {
	return driver.Repeat(driver.KeyBackspace, len([]rune(text)))
}

// TextClear empties loc.
func (i *Interactions) TextClear(ctx context.Context, loc driver.Locator, description string) error {
	i.logger.Debug("TextClear - clearing element", zap.String("target", description))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.Clear(ctx)
	}
	if err != nil {
		return i.fail(ctx, "TextClear", description, err)
	}
	return nil
}

// SelectComboByValue picks the option of the select at loc whose value
// attribute, not its label, equals value.
func (i *Interactions) SelectComboByValue(ctx context.Context, loc driver.Locator, value, description string) error {
	i.logger.Debug("SelectComboByValue - selecting option", zap.String("target", description), zap.String("value", value))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.SelectByValue(ctx, value)
	}
	if err != nil {
		return i.fail(ctx, "SelectComboByValue", description, err)
	}
	return nil
}
