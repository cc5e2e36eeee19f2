package chromium

import (
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/config"
)

// DefaultCommandTimeout bounds a single CDP round trip when the caller's
// context carries no deadline of its own.
const DefaultCommandTimeout = 30 * time.Second

// Options describes how to start or reach a Chromium-family browser.
type Options struct {
	Kind     config.BrowserKind
	Headless bool
	Viewport config.ViewportConfig
	// ExecPath overrides binary discovery.
	ExecPath string
	// UserDataDir isolates the profile; empty lets chromedp pick a temp dir.
	UserDataDir    string
	CommandTimeout time.Duration
}

// OptionsFromConfig derives launch options from the resolved configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Kind:           cfg.Browser,
		Headless:       cfg.Headless,
		Viewport:       cfg.Viewport,
		CommandTimeout: DefaultCommandTimeout,
	}
}

// binaries lists the executables tried for kinds chromedp cannot find on
// its own.
var binaries = map[config.BrowserKind][]string{
	config.Edge:  {"microsoft-edge", "microsoft-edge-stable", "msedge"},
	config.Opera: {"opera", "opera-stable"},
}

// ResolveExecPath returns the browser binary for o. An empty path with a nil
// error means chromedp's own Chrome discovery applies.
func ResolveExecPath(o Options) (string, error) {
	if o.ExecPath != "" {
		return o.ExecPath, nil
	}
	candidates, ok := binaries[o.Kind]
	if !ok {
		return "", nil
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", driver.Errorf(driver.CodeSessionNotCreated, "launch", "no %s binary found (tried %v)", o.Kind, candidates)
}

// Flags returns the command line switches for o. Headless sessions always
// get the same stability set: no GPU, no sandbox, a fixed window and
// certificate errors ignored.
func Flags(o Options) map[string]interface{} {
	flags := map[string]interface{}{
		"enable-automation":         true,
		"no-first-run":              true,
		"no-default-browser-check":  true,
		"disable-popup-blocking":    true,
		"disable-notifications":     true,
		"ignore-certificate-errors": true,
		"headless":                  false,
	}
	if !o.Headless {
		return flags
	}

	w, h := o.Viewport.Width, o.Viewport.Height
	if w <= 0 || h <= 0 {
		w, h = 1920, 1080
	}
	flags["headless"] = true
	flags["disable-gpu"] = true
	flags["no-sandbox"] = true
	flags["disable-extensions"] = true
	flags["disable-default-apps"] = true
	flags["disable-infobars"] = true
	flags["disable-dev-shm-usage"] = true
	flags["hide-scrollbars"] = true
	flags["mute-audio"] = true
	flags["window-size"] = fmt.Sprintf("%d,%d", w, h)
	return flags
}

// AllocatorOptions turns o into chromedp exec allocator options layered on
// chromedp's defaults.
func AllocatorOptions(o Options) ([]chromedp.ExecAllocatorOption, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := Flags(o)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	path, err := ResolveExecPath(o)
	if err != nil {
		return nil, err
	}
	if path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if o.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.UserDataDir))
	}
	return opts, nil
}
