// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/drivertest"
	"github.com/xkilldash9x/pagekit/internal/browser/registry"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

type provisionerFunc func(ctx context.Context, cfg config.Config) (driver.Driver, error)

func (f provisionerFunc) Provision(ctx context.Context, cfg config.Config) (driver.Driver, error) {
	return f(ctx, cfg)
}

// isolate runs the test from an empty directory with none of the
// configuration variables set, so only the test decides the configuration.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{"BROWSER", "HEADLESS", "GRID", "CLOSE"} {
		t.Setenv(key, "")
		t.Setenv(config.EnvPrefix+"_"+key, "")
	}
	return dir
}

// fakeBrowser swaps the provisioner for one handing out browser.
func fakeBrowser(t *testing.T, browser *drivertest.Driver) {
	t.Helper()
	original := newProvisioner
	newProvisioner = func(*zap.Logger) (registry.Provisioner, error) {
		return provisionerFunc(func(context.Context, config.Config) (driver.Driver, error) {
			return browser, nil
		}), nil
	}
	t.Cleanup(func() { newProvisioner = original })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level=error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pagekit version "+Version+"\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "pagekit version "+Version)

	// Persistent flags may follow --version with a separate value.
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"--version", "--log-level", "error"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "pagekit version "+Version)
}

func TestConfig_Defaults(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "browser=CHROME\n")
	assert.Contains(t, out, "close=true\n")
	assert.Contains(t, out, "wait.timeout=20s\n")
	assert.Contains(t, out, "wait.poll_interval=500ms\n")
	assert.Contains(t, out, "wait.probe_timeout=4s\n")
}

func TestConfig_Precedence(t *testing.T) {
	dir := isolate(t)
	props := filepath.Join(dir, "run.properties")
	require.NoError(t, os.WriteFile(props, []byte("browser=edge\nheadless=false\nwait.timeout=30s\n"), 0o600))
	t.Setenv("BROWSER", "firefox")

	out, err := execute(t, "config", "--config", props, "--headless")
	require.NoError(t, err)
	// Environment beats the file, flags beat both.
	assert.Contains(t, out, "browser=FIREFOX\n")
	assert.Contains(t, out, "headless=true\n")
	assert.Contains(t, out, "wait.timeout=30s\n")
}

func TestConfig_JSON(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "--json", "--browser", "opera")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &got))
	assert.Equal(t, "OPERA", got["browser"])
	assert.Equal(t, "ws://localhost:4444/playwright", got["grid_url.firefox"])
}

func TestConfig_Invalid(t *testing.T) {
	isolate(t)

	_, err := execute(t, "config", "--browser", "netscape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "netscape")
}

func TestCheck_ValidatesPage(t *testing.T) {
	isolate(t)
	browser := drivertest.New(time.Now)
	browser.Add(driver.CSS("#greeting"), drivertest.Text("Hello, world"))
	fakeBrowser(t, browser)

	out, err := execute(t, "check", "https://app.test/home", "--selector", "#greeting", "--text", "world")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded https://app.test/home")
	assert.Contains(t, out, "#greeting is ready")
	assert.Equal(t, "https://app.test/home", browser.URL())
	assert.True(t, browser.Quitted(), "close defaults to true")
}

func TestCheck_KeepsSessionWhenCloseIsOff(t *testing.T) {
	isolate(t)
	browser := drivertest.New(time.Now)
	fakeBrowser(t, browser)

	_, err := execute(t, "check", "--close=false")
	require.NoError(t, err)
	assert.False(t, browser.Quitted())
}

func TestCheck_TextMismatch(t *testing.T) {
	isolate(t)
	browser := drivertest.New(time.Now)
	browser.Add(driver.CSS("#greeting"), drivertest.Text("Hello, world"))
	fakeBrowser(t, browser)

	_, err := execute(t, "check", "--selector", "#greeting", "--text", "goodbye")
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.ElementNotVisible))
}

func TestCheck_MissingElementTimesOut(t *testing.T) {
	isolate(t)
	fakeBrowser(t, drivertest.New(time.Now))
	t.Setenv("PAGEKIT_WAIT_POLL_INTERVAL", "50ms")

	_, err := execute(t, "check", "--selector", "#nowhere", "--timeout", "200ms")
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.Timeout))
}

func TestCheck_TextNeedsSelector(t *testing.T) {
	isolate(t)
	fakeBrowser(t, drivertest.New(time.Now))

	_, err := execute(t, "check", "--text", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--selector")
}
