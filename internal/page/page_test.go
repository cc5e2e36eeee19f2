package page_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/drivertest"
	"github.com/xkilldash9x/pagekit/internal/browser/registry"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/interaction"
	"github.com/xkilldash9x/pagekit/internal/page"
	"github.com/xkilldash9x/pagekit/internal/wait"
	"github.com/xkilldash9x/pagekit/internal/wait/waittest"
)

type provisionerFunc func(ctx context.Context, cfg config.Config) (driver.Driver, error)

func (f provisionerFunc) Provision(ctx context.Context, cfg config.Config) (driver.Driver, error) {
	return f(ctx, cfg)
}

var loginButton = driver.CSS("#login")

// Login is a minimal Page Object.
type Login struct {
	page.Base
}

func (p *Login) Submit(ctx context.Context) error {
	p.Log().Info("submitting login form")
	return p.Click(ctx, loginButton, "login button")
}

func TestBase_DrivesInteractionsWithNamedLogger(t *testing.T) {
	clock := waittest.NewManualClock()
	browser := drivertest.New(clock.Now)
	button := drivertest.Button("Log in")
	browser.Add(loginButton, button)

	reg := registry.New(zaptest.NewLogger(t), config.NewDefaultConfig(),
		provisionerFunc(func(context.Context, config.Config) (driver.Driver, error) { return browser, nil }))
	ops := interaction.New(reg, "w1",
		interaction.WithWaiter(wait.NewWaiter(zaptest.NewLogger(t), wait.WithClock(clock))))

	core, logs := observer.New(zapcore.InfoLevel)
	login := &Login{}
	login.Base = page.For(login, ops, zap.New(core))

	require.NoError(t, login.Submit(context.Background()))
	assert.Equal(t, 1, button.Clicks)
	assert.Equal(t, "Login", login.Name())

	entries := logs.FilterMessage("submitting login form").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Login", entries[0].LoggerName)
}

func TestNameOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"pointer", &Login{}, "Login"},
		{"value", Login{}, "Login"},
		{"builtin", 3, "int"},
		{"nil", nil, "page"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, page.NameOf(tc.in))
		})
	}
}

func TestNew_NilLoggerFallsBack(t *testing.T) {
	b := page.New("Home", nil, nil)
	assert.NotNil(t, b.Log())
	assert.Equal(t, "Home", b.Name())
}
