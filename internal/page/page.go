// Package page provides the base every Page Object builds on.
//
// A Page Object embeds Base, declares its locators, and implements its
// business steps in terms of the promoted interaction operations:
//
//	type Login struct {
//		page.Base
//	}
//
//	var loginButton = driver.CSS("#login")
//
//	func (p *Login) Submit(ctx context.Context) error {
//		p.Log().Info("submitting login form")
//		return p.Click(ctx, loginButton, "login button")
//	}
package page

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/interaction"
	"github.com/xkilldash9x/pagekit/internal/observability"
)

// Base carries the worker's interaction operations and a logger named after
// the page.
type Base struct {
	*interaction.Interactions
	name   string
	logger *zap.Logger
}

// New returns a Base for the page called name. A nil logger falls back to the
// process-wide one.
func New(name string, ops *interaction.Interactions, logger *zap.Logger) Base {
	if logger == nil {
		logger = observability.GetLogger()
	}
	return Base{
		Interactions: ops,
		name:         name,
		logger:       logger.Named(name),
	}
}

// For returns a Base named after the type of p, so a Page Object can
// initialise itself with page.For(p, ops, logger).
func For(p any, ops *interaction.Interactions, logger *zap.Logger) Base {
	return New(NameOf(p), ops, logger)
}

// Name is the page name.
func (b Base) Name() string { return b.name }

// Log returns the page logger.
func (b Base) Log() *zap.Logger { return b.logger }

// NameOf returns the bare type name of v, without package or pointer marks.
func NameOf(v any) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", v), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "<nil>" {
		return "page"
	}
	return name
}
