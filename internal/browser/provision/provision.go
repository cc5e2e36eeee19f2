// Package provision creates browser sessions. Each browser kind maps to a
// strategy that knows how to launch it locally or reach it on a grid; the
// map is checked exhaustively when a Provisioner is built.
package provision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/chromium"
	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/firefox"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

// Mode is how a session was created.
type Mode string

const (
	ModeLocal    Mode = "local"
	ModeHeadless Mode = "headless"
	ModeGrid     Mode = "grid"
)

// ModeOf derives the creation mode from the configuration. Grid wins over
// headless: a grid node decides its own display.
func ModeOf(cfg config.Config) Mode {
	switch {
	case cfg.Grid:
		return ModeGrid
	case cfg.Headless:
		return ModeHeadless
	default:
		return ModeLocal
	}
}

// Func starts one session for cfg.Browser. When cfg.Grid is set it must
// connect to cfg.GridURL rather than start a process.
type Func func(ctx context.Context, logger *zap.Logger, cfg config.Config) (driver.Driver, error)

// Chromium provisions Chrome, Edge and Opera through chromedp.
func Chromium(ctx context.Context, logger *zap.Logger, cfg config.Config) (driver.Driver, error) {
	opts := chromium.OptionsFromConfig(cfg)
	var (
		d   *chromium.Driver
		err error
	)
	if cfg.Grid {
		d, err = chromium.Connect(ctx, logger, cfg.GridURL.Chromium, opts)
	} else {
		d, err = chromium.Launch(ctx, logger, opts)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Firefox provisions Firefox through Playwright.
func Firefox(ctx context.Context, logger *zap.Logger, cfg config.Config) (driver.Driver, error) {
	opts := firefox.OptionsFromConfig(cfg)
	var (
		d   *firefox.Driver
		err error
	)
	if cfg.Grid {
		d, err = firefox.Connect(ctx, logger, cfg.GridURL.Firefox, opts)
	} else {
		d, err = firefox.Launch(ctx, logger, opts)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DefaultStrategies returns the strategy for every supported browser kind.
func DefaultStrategies() map[config.BrowserKind]Func {
	return map[config.BrowserKind]Func{
		config.Chrome:  Chromium,
		config.Edge:    Chromium,
		config.Opera:   Chromium,
		config.Firefox: Firefox,
	}
}

// Provisioner turns a configuration into a ready session.
type Provisioner struct {
	logger     *zap.Logger
	strategies map[config.BrowserKind]Func
}

// Option customizes a Provisioner.
type Option func(*Provisioner)

// WithStrategy replaces the strategy for one kind.
func WithStrategy(kind config.BrowserKind, fn Func) Option {
	return func(p *Provisioner) { p.strategies[kind] = fn }
}

// New builds a Provisioner with the default strategies. It fails if any
// supported kind is left without a strategy.
func New(logger *zap.Logger, opts ...Option) (*Provisioner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provisioner{logger: logger.Named("provision"), strategies: DefaultStrategies()}
	for _, opt := range opts {
		opt(p)
	}
	for _, kind := range config.BrowserKinds {
		if p.strategies[kind] == nil {
			return nil, fmt.Errorf("no provisioning strategy for %s", kind)
		}
	}
	return p, nil
}

// Provision creates a session for cfg, clears its cookies and maximises its
// window. Grid failures, including a malformed endpoint, are reported as
// GridConnectionFailure and no session is left behind.
func (p *Provisioner) Provision(ctx context.Context, cfg config.Config) (driver.Driver, error) {
	kind := cfg.Browser
	fn, ok := p.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("browser %q is not supported", kind)
	}
	mode := ModeOf(cfg)
	logger := p.logger.With(zap.Stringer("browser", kind), zap.String("mode", string(mode)))

	if cfg.Grid {
		endpoint := cfg.GridURL.For(kind)
		if err := config.ValidateGridURL(endpoint); err != nil {
			return nil, failure.Wrap(failure.GridConnectionFailure, "provision", endpoint, "", err)
		}
		if cfg.GridConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.GridConnectTimeout)
			defer cancel()
		}
		logger.Debug("Connecting to grid", zap.String("endpoint", endpoint))
		d, err := fn(ctx, logger, cfg)
		if err != nil {
			return nil, failure.Wrap(failure.GridConnectionFailure, "provision", endpoint, "", err)
		}
		return p.bootstrap(ctx, logger, d)
	}

	d, err := fn(ctx, logger, cfg)
	if err != nil {
		return nil, failure.Wrap(localKind(err), "provision", kind.String(), "", err)
	}
	return p.bootstrap(ctx, logger, d)
}

// localKind classifies a local launch failure. GridConnectionFailure is
// reserved for the grid path, so a refused local connection stays
// Unclassified.
func localKind(err error) failure.Kind {
	if k := failure.Classify(err); k != failure.GridConnectionFailure {
		return k
	}
	return failure.Unclassified
}

// bootstrap prepares a fresh session: a clean cookie jar and a maximised
// window. A window manager that refuses to maximise is not fatal.
func (p *Provisioner) bootstrap(ctx context.Context, logger *zap.Logger, d driver.Driver) (driver.Driver, error) {
	if err := d.DeleteAllCookies(ctx); err != nil {
		_ = d.Quit(context.WithoutCancel(ctx))
		return nil, failure.New("provision", "delete cookies", "", err)
	}
	if err := d.MaximizeWindow(ctx); err != nil {
		logger.Warn("Could not maximise window", zap.Error(err))
	}
	logger.Info("Session provisioned")
	return d, nil
}
