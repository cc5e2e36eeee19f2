package firefox

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/pagekit/internal/config"
)

const (
	// DefaultCommandTimeout bounds a single Playwright call.
	DefaultCommandTimeout = 30 * time.Second
	// DefaultActionTimeout bounds Playwright's own actionability wait inside
	// element actions. It is kept short: retrying is the wait engine's job.
	DefaultActionTimeout = 2 * time.Second
	installTimeout       = 5 * time.Minute
)

// Options describes how to start or reach Firefox.
type Options struct {
	Headless       bool
	Viewport       config.ViewportConfig
	CommandTimeout time.Duration
	ActionTimeout  time.Duration
	// ConnectTimeout bounds the websocket handshake with a grid endpoint.
	ConnectTimeout time.Duration
	// SkipInstall assumes the Playwright driver and Firefox build are present.
	SkipInstall bool
}

// OptionsFromConfig derives launch options from the resolved configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Headless:       cfg.Headless,
		Viewport:       cfg.Viewport,
		CommandTimeout: DefaultCommandTimeout,
		ActionTimeout:  DefaultActionTimeout,
		ConnectTimeout: cfg.GridConnectTimeout,
	}
}

func (o Options) viewport() (int, int) {
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		return 1920, 1080
	}
	return o.Viewport.Width, o.Viewport.Height
}

func (o Options) commandTimeout() time.Duration {
	if o.CommandTimeout <= 0 {
		return DefaultCommandTimeout
	}
	return o.CommandTimeout
}

func (o Options) actionTimeout() time.Duration {
	if o.ActionTimeout <= 0 {
		return DefaultActionTimeout
	}
	return o.ActionTimeout
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// UserPrefs returns the about:config overrides for a session. Headless
// sessions additionally turn off hardware acceleration.
func UserPrefs(o Options) map[string]interface{} {
	prefs := map[string]interface{}{
		"dom.webnotifications.enabled":      false,
		"dom.disable_open_during_load":      false,
		"browser.shell.checkDefaultBrowser": false,
		"app.update.enabled":                false,
	}
	if o.Headless {
		prefs["layers.acceleration.disabled"] = true
		prefs["gfx.webrender.software"] = true
		prefs["media.autoplay.default"] = 5
	}
	return prefs
}

// LaunchOptions builds the options for a local Firefox process.
func LaunchOptions(o Options) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless:         playwright.Bool(o.Headless),
		FirefoxUserPrefs: UserPrefs(o),
		Timeout:          millis(o.commandTimeout() * 2),
	}
}

// ContextOptions builds the browser context every tab lives in. Certificate
// errors are always accepted.
func ContextOptions(o Options) playwright.BrowserNewContextOptions {
	w, h := o.viewport()
	return playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
		Viewport:          &playwright.Size{Width: w, Height: h},
	}
}
