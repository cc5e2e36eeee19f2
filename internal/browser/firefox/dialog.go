package firefox

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

func (d *Driver) openDialog(op string) (*tab, playwright.Dialog, string, error) {
	t, _, err := d.snapshot(op)
	if err != nil {
		return nil, nil, "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.dialog == nil {
		return nil, nil, "", driver.Errorf(driver.CodeNoSuchAlert, op, "no dialog is open")
	}
	return t, t.dialog, t.promptText, nil
}

func (d *Driver) AlertText(ctx context.Context) (string, error) {
	_, dlg, _, err := d.openDialog("alert text")
	if err != nil {
		return "", err
	}
	return dlg.Message(), nil
}

// SendAlertText stores text as the answer to an open prompt; it is submitted
// on accept.
func (d *Driver) SendAlertText(ctx context.Context, text string) error {
	t, dlg, _, err := d.openDialog("send alert text")
	if err != nil {
		return err
	}
	if dlg.Type() != "prompt" {
		return driver.Errorf(driver.CodeElementNotInteractable, "send alert text", "%s dialog does not accept text", dlg.Type())
	}
	d.mu.Lock()
	t.promptText = text
	d.mu.Unlock()
	return nil
}

func (d *Driver) AcceptAlert(ctx context.Context) error {
	t, dlg, text, err := d.openDialog("accept alert")
	if err != nil {
		return err
	}
	err = d.do(ctx, "accept alert", func() error {
		if text != "" {
			return dlg.Accept(text)
		}
		return dlg.Accept()
	})
	if err != nil {
		return err
	}
	d.clearDialog(t)
	return nil
}

func (d *Driver) DismissAlert(ctx context.Context) error {
	t, dlg, _, err := d.openDialog("dismiss alert")
	if err != nil {
		return err
	}
	if err := d.do(ctx, "dismiss alert", dlg.Dismiss); err != nil {
		return err
	}
	d.clearDialog(t)
	return nil
}

func (d *Driver) clearDialog(t *tab) {
	d.mu.Lock()
	t.dialog, t.promptText = nil, ""
	d.mu.Unlock()
}
