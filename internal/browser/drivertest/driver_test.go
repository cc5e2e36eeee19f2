package drivertest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/drivertest"
	"github.com/xkilldash9x/pagekit/internal/wait/waittest"
)

func codeOf(t *testing.T, err error) driver.Code {
	t.Helper()
	code, ok := driver.CodeOf(err)
	require.True(t, ok, "error %v carries no code", err)
	return code
}

func TestDriver_Appearance(t *testing.T) {
	ctx := context.Background()
	clock := waittest.NewManualClock()
	d := drivertest.New(clock.Now)

	loc := driver.XPath("//button[@id='late']")
	btn := drivertest.Button("Late")
	btn.AppearAt = 2 * time.Second
	btn.VisibleAt = 3 * time.Second
	d.Add(loc, btn)

	found, err := d.FindElements(ctx, loc)
	require.NoError(t, err)
	assert.Empty(t, found)

	clock.Advance(2 * time.Second)
	found, err = d.FindElements(ctx, loc)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, driver.CodeElementNotVisible, codeOf(t, found[0].Click(ctx)))

	clock.Advance(time.Second)
	require.NoError(t, found[0].Click(ctx))
	assert.Equal(t, 1, btn.Clicks)
}

func TestDriver_Typing(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New(nil)
	loc := driver.CSS("#name")
	field := drivertest.Input("hello")
	d.Add(loc, field)

	el, err := driver.First(ctx, d, loc)
	require.NoError(t, err)
	require.NoError(t, el.SendKeys(ctx, driver.Repeat(driver.KeyBackspace, 3)+"abc"))
	assert.Equal(t, "heabc", field.Value)

	require.NoError(t, el.Clear(ctx))
	assert.Equal(t, "", field.Value)

	slider := drivertest.Slider("10")
	d.Add(driver.CSS("#range"), slider)
	el, err = driver.First(ctx, d, driver.CSS("#range"))
	require.NoError(t, err)
	require.NoError(t, el.SendKeys(ctx, driver.Repeat(driver.KeyArrowRight, 4)))
	assert.Equal(t, "14", slider.Value)

	label := drivertest.Text("Static")
	d.Add(driver.CSS("#label"), label)
	el, err = driver.First(ctx, d, driver.CSS("#label"))
	require.NoError(t, err)
	assert.Equal(t, driver.CodeElementNotInteractable, codeOf(t, el.SendKeys(ctx, "x")))
}

func TestDriver_StaleAndInjected(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New(nil)
	loc := driver.CSS(".row")
	d.Add(loc, drivertest.Text("a"), drivertest.Text("b"))

	rows, err := d.FindElements(ctx, loc)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	d.Remove(loc)
	_, err = rows[0].Text(ctx)
	assert.Equal(t, driver.CodeStaleElement, codeOf(t, err))

	d.FailNext("find", driver.Errorf(driver.CodeNoSuchFrame, "find", "boom"))
	_, err = d.FindElements(ctx, loc)
	assert.Equal(t, driver.CodeNoSuchFrame, codeOf(t, err))
	_, err = d.FindElements(ctx, loc)
	assert.NoError(t, err, "FailNext is consumed")
	assert.Equal(t, 3, d.Calls("find"))
}

func TestDriver_FramesAlertsWindows(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New(nil)

	inFrame := d.AddFrame("payment")
	inFrame(driver.CSS("#card"), drivertest.Input(""))

	found, err := d.FindElements(ctx, driver.CSS("#card"))
	require.NoError(t, err)
	assert.Empty(t, found, "frame content is invisible from the top document")

	require.NoError(t, d.SwitchToFrameName(ctx, "payment"))
	found, err = d.FindElements(ctx, driver.CSS("#card"))
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, []string{"payment"}, d.FramePath())
	require.NoError(t, d.SwitchToDefaultContent(ctx))
	assert.Equal(t, driver.CodeNoSuchFrame, codeOf(t, d.SwitchToFrameIndex(ctx, 3)))

	d.OpenAlert("prompt", "Your name?", 0)
	_, err = d.FindElements(ctx, driver.CSS("#card"))
	assert.Equal(t, driver.CodeUnexpectedAlertOpen, codeOf(t, err))
	require.NoError(t, d.SendAlertText(ctx, "Ada"))
	require.NoError(t, d.AcceptAlert(ctx))
	assert.Equal(t, "Ada", d.AlertAnswer())
	_, err = d.AlertText(ctx)
	assert.Equal(t, driver.CodeNoSuchAlert, codeOf(t, err))

	require.NoError(t, d.NewTab(ctx))
	handles, err := d.WindowHandles(ctx)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	require.NoError(t, d.SwitchToWindow(ctx, handles[1]))
	require.NoError(t, d.CloseWindow(ctx))
	assert.Equal(t, driver.CodeNoSuchWindow, codeOf(t, d.Navigate(ctx, "https://example.test")))

	require.NoError(t, d.Quit(ctx))
	assert.True(t, d.Quitted())
	_, err = d.WindowHandles(ctx)
	assert.Equal(t, driver.CodeInvalidSessionID, codeOf(t, err))
}
