package firefox

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// selector renders loc in Playwright's engine-prefixed selector syntax.
func selector(loc driver.Locator) string {
	if loc.By == driver.ByXPath {
		return "xpath=" + loc.Value
	}
	return "css=" + loc.Value
}

func (d *Driver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, driver.NewError(driver.CodeInvalidSelector, "find elements", err)
	}
	t, frame, err := d.page("find elements")
	if err != nil {
		return nil, err
	}
	handles, err := await(ctx, func() ([]playwright.ElementHandle, error) {
		return frame.QuerySelectorAll(selector(loc))
	})
	if err != nil {
		return nil, translate("find elements", err)
	}
	out := make([]driver.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &element{d: d, t: t, h: h})
	}
	return out, nil
}

func (d *Driver) SwitchToFrameIndex(ctx context.Context, index int) error {
	_, frame, err := d.page("switch frame")
	if err != nil {
		return err
	}
	handles, err := await(ctx, func() ([]playwright.ElementHandle, error) {
		return frame.QuerySelectorAll("iframe, frame")
	})
	if err != nil {
		return translate("switch frame", err)
	}
	if index < 0 || index >= len(handles) {
		return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "frame index %d out of range (%d frames)", index, len(handles))
	}
	return d.enter(ctx, handles[index])
}

func (d *Driver) SwitchToFrameName(ctx context.Context, nameOrID string) error {
	_, frame, err := d.page("switch frame")
	if err != nil {
		return err
	}
	q := quote(nameOrID)
	sel := fmt.Sprintf(`iframe[name=%[1]s], iframe[id=%[1]s], frame[name=%[1]s], frame[id=%[1]s]`, q)
	handles, err := await(ctx, func() ([]playwright.ElementHandle, error) {
		return frame.QuerySelectorAll(sel)
	})
	if err != nil {
		return translate("switch frame", err)
	}
	if len(handles) == 0 {
		return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "no frame named %q", nameOrID)
	}
	return d.enter(ctx, handles[0])
}

func (d *Driver) enter(ctx context.Context, h playwright.ElementHandle) error {
	child, err := await(ctx, h.ContentFrame)
	if err != nil {
		return translate("switch frame", err)
	}
	if child == nil {
		return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "frame document is not accessible")
	}
	d.mu.Lock()
	d.frames = append(d.frames, child)
	d.mu.Unlock()
	return nil
}

func (d *Driver) SwitchToDefaultContent(ctx context.Context) error {
	if _, _, err := d.snapshot("switch frame"); err != nil {
		return err
	}
	d.resetFrames()
	return nil
}

// quote renders s as a CSS string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}
