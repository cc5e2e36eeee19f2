package interaction

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// Slider drags the handle at loc horizontally by offset pixels. The drag is
// handed to the backend as one gesture.
func (i *Interactions) Slider(ctx context.Context, loc driver.Locator, offset int, description string) error {
	i.logger.Debug("Slider - dragging element", zap.String("target", description), zap.Int("offset", offset))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.DragBy(ctx, offset, 0)
	}
	if err != nil {
		return i.fail(ctx, "Slider", description, err)
	}
	return nil
}

// SliderSendKeys clicks the slider at loc to focus it and then presses the
// right arrow exactly repetitions times.
func (i *Interactions) SliderSendKeys(ctx context.Context, loc driver.Locator, repetitions int, description string) error {
	i.logger.Debug("SliderSendKeys - stepping slider", zap.String("target", description), zap.Int("repetitions", repetitions))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.Click(ctx)
	}
	for n := 0; err == nil && n < repetitions; n++ {
		err = el.SendKeys(ctx, driver.KeyArrowRight)
	}
	if err != nil {
		return i.fail(ctx, "SliderSendKeys", description, err)
	}
	return nil
}

// MoveMouse hovers the pointer over loc.
func (i *Interactions) MoveMouse(ctx context.Context, loc driver.Locator, description string) error {
	i.logger.Debug("MoveMouse - moving pointer", zap.String("target", description))
	el, err := i.readyDefault(ctx, loc)
	if err == nil {
		err = el.Hover(ctx)
	}
	if err != nil {
		return i.fail(ctx, "MoveMouse", description, err)
	}
	return nil
}
