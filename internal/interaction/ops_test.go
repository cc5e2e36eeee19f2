package interaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/drivertest"
	"github.com/xkilldash9x/pagekit/internal/browser/registry"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/failure"
	"github.com/xkilldash9x/pagekit/internal/interaction"
	"github.com/xkilldash9x/pagekit/internal/wait"
)

func TestLocators(t *testing.T) {
	tests := []struct {
		name string
		got  driver.Locator
		want string
	}{
		{"attribute", interaction.ByAttribute("data-test", "go"), "//*[@data-test='go']"},
		{"text", interaction.ByText("Save"), "//*[contains(text(), 'Save')]"},
		{"normalized text", interaction.ByNormalizedText("Save"), "//*[normalize-space(text())='Save']"},
		{"apostrophe", interaction.ByText("it's"), `//*[contains(text(), "it's")]`},
		{"both quotes", interaction.ByText(`say "it's"`), `//*[contains(text(), concat('say "it', "'", 's"'))]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, driver.ByXPath, tt.got.By)
			assert.Equal(t, tt.want, tt.got.Value)
		})
	}
}

func TestClickVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byAttr, byText, byNorm := drivertest.Button("a"), drivertest.Button("b"), drivertest.Button("c")
	f.page().Add(interaction.ByAttribute("data-test", "go"), byAttr)
	f.page().Add(interaction.ByText("Save"), byText)
	f.page().Add(interaction.ByNormalizedText("Save"), byNorm)

	require.NoError(t, f.ops.ClickByAttribute(ctx, "data-test", "go"))
	require.NoError(t, f.ops.ClickByText(ctx, "Save"))
	require.NoError(t, f.ops.ClickByNormalizeText(ctx, "Save"))
	assert.Equal(t, []int{1, 1, 1}, []int{byAttr.Clicks, byText.Clicks, byNorm.Clicks})

	err := f.ops.ClickByAttribute(ctx, "data-test", "missing")
	report := requireKind(t, err, failure.Timeout)
	assert.Equal(t, "ClickByAttribute", report.Operation)
	assert.Equal(t, "data-test", report.Target)
}

func TestClick_FailuresAreClassified(t *testing.T) {
	ctx := context.Background()

	t.Run("stale after readiness", func(t *testing.T) {
		f := newFixture(t)
		loc := driver.CSS("#b")
		f.page().Add(loc, drivertest.Button("b"))
		f.page().FailNext("click", driver.Errorf(driver.CodeStaleElement, "click", "detached"))
		report := requireKind(t, f.ops.Click(ctx, loc, "Button"), failure.ElementStale)
		assert.Contains(t, report.Cause, "detached")
	})

	t.Run("obscured", func(t *testing.T) {
		f := newFixture(t)
		loc := driver.CSS("#b")
		btn := drivertest.Button("b")
		btn.Obscured = true
		f.page().Add(loc, btn)
		requireKind(t, f.ops.Click(ctx, loc, "Button"), failure.ElementNotInteractable)
		assert.Zero(t, btn.Clicks)
	})

	t.Run("fatal probe failure stops polling", func(t *testing.T) {
		f := newFixture(t)
		f.page().FailAlways("find", driver.Errorf(driver.CodeInvalidSelector, "find", "bad selector"))
		requireKind(t, f.ops.Click(ctx, driver.CSS("#b"), "Button"), failure.Unclassified)
		assert.Equal(t, 1, f.page().Calls("find"))
		assert.Empty(t, f.clock.Sleeps())
	})

	t.Run("transient failures absorbed", func(t *testing.T) {
		f := newFixture(t)
		loc := driver.CSS("#b")
		btn := drivertest.Button("b")
		f.page().Add(loc, btn)
		f.page().FailNext("find",
			driver.Errorf(driver.CodeNoSuchElement, "find", "not yet"),
			driver.Errorf(driver.CodeStaleElement, "find", "re-rendered"))
		require.NoError(t, f.ops.Click(ctx, loc, "Button"))
		assert.Equal(t, 3, f.page().Calls("find"))
		assert.Equal(t, 1, btn.Clicks)
	})

	t.Run("bad window is a configuration error", func(t *testing.T) {
		f := newFixture(t)
		err := f.ops.ClickWithin(ctx, driver.CSS("#b"), 0, "Button")
		assert.ErrorIs(t, err, wait.ErrInvalidPolicy)
		assert.Empty(t, f.sink.Reports())
	})
}

func TestWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := driver.CSS("#name")
	field := drivertest.Input("ab")
	f.page().Add(loc, field)

	require.NoError(t, f.ops.Write(ctx, loc, "cd", "Name"))
	assert.Equal(t, "abcd", field.Value)

	require.NoError(t, f.ops.Backspace(ctx, loc, "xy"))
	assert.Equal(t, "ab", field.Value)

	require.NoError(t, f.ops.TextClear(ctx, loc, "Name"))
	assert.Equal(t, "", field.Value)

	field.Value = "old"
	require.NoError(t, f.ops.WriteSlowly(ctx, loc, "nová", "Name"))
	assert.Equal(t, "nová", field.Value)
	assert.Equal(t, []string{"n", "o", "v", "á"}, field.Keys[len(field.Keys)-4:])

	label := driver.CSS("#label")
	f.page().Add(label, drivertest.Text("static"))
	requireKind(t, f.ops.TextClear(ctx, label, "Label"), failure.ElementNotInteractable)
	requireKind(t, f.ops.Write(ctx, label, "x", "Label"), failure.ElementNotInteractable)
}

func TestSelectComboByValue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := driver.CSS("select")
	combo := drivertest.Select("sp", "rj")
	f.page().Add(loc, combo)

	require.NoError(t, f.ops.SelectComboByValue(ctx, loc, "rj", "State"))
	assert.Equal(t, "rj", combo.Value)

	report := requireKind(t, f.ops.SelectComboByValue(ctx, loc, "Rio de Janeiro", "State"), failure.ElementNotFound)
	assert.Equal(t, "SelectComboByValue", report.Operation)
}

func TestReading(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	title := drivertest.Text("Welcome, Ana")
	title.Attrs = map[string]string{"id": "title"}
	f.page().Add(driver.CSS("h1"), title)
	radio := drivertest.Button("")
	radio.Selected = true
	f.page().Add(driver.CSS("#radio"), radio)
	f.page().Add(driver.CSS("li"), drivertest.Text("1"), drivertest.Text("2"), drivertest.Text("3"))

	text, err := f.ops.GetText(ctx, driver.CSS("h1"), "Title")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Ana", text)

	id, err := f.ops.GetAttribute(ctx, driver.CSS("h1"), "id", "Title")
	require.NoError(t, err)
	assert.Equal(t, "title", id)

	missing, err := f.ops.GetAttribute(ctx, driver.CSS("h1"), "href", "Title")
	require.NoError(t, err)
	assert.Equal(t, "", missing)

	selected, err := f.ops.IsRadioSelected(ctx, driver.CSS("#radio"), "Radio")
	require.NoError(t, err)
	assert.True(t, selected)

	n, err := f.ops.SizeListElements(ctx, driver.CSS("li"), "Items")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.ops.SizeListElements(ctx, driver.CSS("tr"), "Rows")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.clock.Sleeps(), "counting never waits")

	_, err = f.ops.GetText(ctx, driver.CSS("#gone"), "Gone")
	requireKind(t, err, failure.Timeout)
}

func TestPageValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := driver.CSS("h1")
	f.page().Add(loc, drivertest.Text("Welcome, Ana"))

	require.NoError(t, f.ops.PageValidation(ctx, loc, "Welcome", "Home"))
	require.NoError(t, f.ops.RefreshAndValidate(ctx, loc, "Ana", "Home"))
	assert.Equal(t, 1, f.page().Calls("refresh"))

	report := requireKind(t, f.ops.PageValidation(ctx, loc, "Goodbye", "Home"), failure.ElementNotVisible)
	assert.Equal(t, "PageValidation", report.Operation)
	assert.Contains(t, report.Cause, "Goodbye")

	report = requireKind(t, f.ops.RefreshAndValidate(ctx, loc, "Goodbye", "Home"), failure.ElementNotVisible)
	assert.Equal(t, "RefreshAndValidate", report.Operation)
	assert.Len(t, f.sink.Reports(), 2)
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()

	t.Run("prompt", func(t *testing.T) {
		f := newFixture(t)
		f.page().OpenAlert("prompt", "Name?", time.Second)

		text, err := f.ops.AlertText(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Name?", text)
		assert.Equal(t, time.Second, f.slept())

		require.NoError(t, f.ops.WriteAlert(ctx, "Ana"))
		require.NoError(t, f.ops.AcceptAlert(ctx, true))
		assert.Equal(t, "Ana", f.page().AlertAnswer())
	})

	t.Run("dismiss", func(t *testing.T) {
		f := newFixture(t)
		f.page().OpenAlert("confirm", "Sure?", 0)
		require.NoError(t, f.ops.AcceptAlert(ctx, false))
		assert.Empty(t, f.page().AlertAnswer())
		report := requireKind(t, f.ops.AcceptAlert(ctx, false), failure.NoAlertPresent)
		assert.Equal(t, "AcceptAlert false", report.Target)
	})

	t.Run("text into plain alert", func(t *testing.T) {
		f := newFixture(t)
		f.page().OpenAlert("alert", "Saved", 0)
		requireKind(t, f.ops.WriteAlert(ctx, "x"), failure.ElementNotInteractable)
	})
}

func TestFrames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	register := f.page().AddFrame("payment")
	field := drivertest.Input("")
	register(driver.CSS("#card"), field)

	require.NoError(t, f.ops.SwitchFrameName(ctx, "payment", "Payment"))
	assert.Equal(t, []string{"payment"}, f.page().FramePath())
	require.NoError(t, f.ops.Write(ctx, driver.CSS("#card"), "4111", "Card"))
	assert.Equal(t, "4111", field.Value)

	require.NoError(t, f.ops.FrameDefault(ctx))
	assert.Empty(t, f.page().FramePath())

	require.NoError(t, f.ops.SwitchFrameIndex(ctx, 0, "First frame"))
	assert.Equal(t, []string{"payment"}, f.page().FramePath())
	require.NoError(t, f.ops.FrameDefault(ctx))

	report := requireKind(t, f.ops.SwitchFrameIndex(ctx, 3, "Fourth frame"), failure.FrameNotFound)
	assert.Equal(t, "SwitchFrame", report.Operation)
}

func TestTabs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.ops.NewTab(ctx))
	require.NoError(t, f.ops.SwitchTab(ctx, 1))
	assert.Equal(t, "window-1", f.page().CurrentHandle())

	require.NoError(t, f.ops.CloseTab(ctx))
	assert.Equal(t, "", f.page().CurrentHandle())
	require.NoError(t, f.ops.SwitchTab(ctx, 0))
	assert.Equal(t, "window-0", f.page().CurrentHandle())

	report := requireKind(t, f.ops.SwitchTab(ctx, 5), failure.Unclassified)
	assert.Equal(t, "tab 5", report.Target)
}

func TestGestures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	loc := driver.CSS("#range")
	slider := drivertest.Slider("10")
	f.page().Add(loc, slider)

	require.NoError(t, f.ops.Slider(ctx, loc, 30, "Volume"))
	assert.Equal(t, [][2]int{{30, 0}}, slider.Drags)

	require.NoError(t, f.ops.SliderSendKeys(ctx, loc, 4, "Volume"))
	assert.Equal(t, "14", slider.Value)
	assert.Equal(t, 1, slider.Clicks)
	assert.Len(t, slider.Keys, 4)

	require.NoError(t, f.ops.SliderSendKeys(ctx, loc, 0, "Volume"))
	assert.Equal(t, "14", slider.Value)

	require.NoError(t, f.ops.MoveMouse(ctx, loc, "Volume"))
	assert.Equal(t, 1, slider.Hovers)

	require.NoError(t, f.ops.Scroll(ctx, loc, "Volume"))
	require.NoError(t, f.ops.ScrollCenter(ctx, loc, "Volume"))
	assert.Equal(t, 2, slider.Scrolls)
}

func TestAwaitAndWait(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := driver.CSS("#late")
	late := drivertest.Button("late")
	late.AppearAt = 3 * time.Second
	f.page().Add(loc, late)

	requireKind(t, f.ops.AwaitElementFor(ctx, loc, 2*time.Second, "Late"), failure.Timeout)
	require.NoError(t, f.ops.AwaitElementPolling(ctx, loc, 5*time.Second, time.Second, "Late"))
	require.NoError(t, f.ops.AwaitElement(ctx, loc, "Late"))

	err := f.ops.AwaitElementPolling(ctx, loc, time.Second, time.Second, "Late")
	assert.ErrorIs(t, err, wait.ErrInvalidPolicy)

	before := f.slept()
	require.NoError(t, f.ops.Wait(ctx, 3*time.Second))
	assert.Equal(t, 3*time.Second, f.slept()-before)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	requireKind(t, f.ops.Wait(cancelled, time.Second), failure.InterruptedWait)
}

func TestWorkerFromContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ops := interaction.New(f.reg, "")
	assert.Equal(t, registry.WorkerID(""), ops.Worker())

	err := ops.URL(ctx, "https://example.test")
	require.Error(t, err)
	_, isFailure := failure.ReportOf(err)
	assert.False(t, isFailure, "a missing worker is a programming error, not a failure")

	require.NoError(t, ops.URL(registry.WithWorker(ctx, worker), "https://example.test"))
	assert.Equal(t, "https://example.test", f.page().URL())
}

func TestProvisioningFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	grid := failure.Newf(failure.GridConnectionFailure, "provision", "ws://grid", "", "unreachable")
	reg := registry.New(zaptest.NewLogger(t), config.NewDefaultConfig(),
		provisionerFunc(func(ctx context.Context, cfg config.Config) (driver.Driver, error) {
			return nil, grid
		}))
	sink := &recordingSink{}
	ops := interaction.New(reg, worker, interaction.WithSink(sink))

	err := ops.Click(ctx, driver.CSS("#x"), "X")
	assert.ErrorIs(t, err, grid)
	requireKind(t, err, failure.GridConnectionFailure)
	assert.Len(t, sink.Reports(), 1)
}
