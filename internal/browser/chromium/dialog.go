package chromium

import (
	"context"

	"github.com/chromedp/cdproto/page"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// openDialog returns the current tab and the dialog open on it.
func (d *Driver) openDialog(op string) (*tab, *page.EventJavascriptDialogOpening, string, error) {
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
	return dlg.Message, nil
}

// SendAlertText stores text as the answer to an open prompt. It is submitted
// when the prompt is accepted.
func (d *Driver) SendAlertText(ctx context.Context, text string) error {
	t, dlg, _, err := d.openDialog("send alert text")
	if err != nil {
		return err
	}
	if dlg.Type != page.DialogTypePrompt {
		return driver.Errorf(driver.CodeElementNotInteractable, "send alert text", "%s dialog does not accept text", dlg.Type)
	}
	d.mu.Lock()
	t.promptText = text
	d.mu.Unlock()
	return nil
}

func (d *Driver) AcceptAlert(ctx context.Context) error {
	return d.closeDialog(ctx, "accept alert", true)
}

func (d *Driver) DismissAlert(ctx context.Context) error {
	return d.closeDialog(ctx, "dismiss alert", false)
}

func (d *Driver) closeDialog(ctx context.Context, op string, accept bool) error {
	t, _, text, err := d.openDialog(op)
	if err != nil {
		return err
	}
	handle := page.HandleJavaScriptDialog(accept)
	if accept && text != "" {
		handle = handle.WithPromptText(text)
	}
	if err := d.runOn(ctx, t, op, handle); err != nil {
		return err
	}
	// The closed event clears the state too; clearing here keeps a follow-up
	// call from racing the event.
	d.mu.Lock()
	t.dialog, t.promptText = nil, ""
	d.mu.Unlock()
	return nil
}
