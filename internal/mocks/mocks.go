// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/config"
)

// -- Driver Mock --

// MockDriver mocks driver.Driver.
type MockDriver struct {
	mock.Mock
}

var _ driver.Driver = (*MockDriver)(nil)

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	args := m.Called(ctx, loc)
	var elements []driver.Element
	if v := args.Get(0); v != nil {
		elements = v.([]driver.Element)
	}
	return elements, args.Error(1)
}

func (m *MockDriver) SwitchToFrameIndex(ctx context.Context, index int) error {
	return m.Called(ctx, index).Error(0)
}

func (m *MockDriver) SwitchToFrameName(ctx context.Context, nameOrID string) error {
	return m.Called(ctx, nameOrID).Error(0)
}

func (m *MockDriver) SwitchToDefaultContent(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) AlertText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) SendAlertText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockDriver) AcceptAlert(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) DismissAlert(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) NewTab(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) WindowHandles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var handles []string
	if v := args.Get(0); v != nil {
		handles = v.([]string)
	}
	return handles, args.Error(1)
}

func (m *MockDriver) SwitchToWindow(ctx context.Context, handle string) error {
	return m.Called(ctx, handle).Error(0)
}

func (m *MockDriver) CloseWindow(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) DeleteAllCookies(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) MaximizeWindow(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) Quit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Element Mock --

// MockElement mocks driver.Element.
type MockElement struct {
	mock.Mock
}

var _ driver.Element = (*MockElement)(nil)

func (m *MockElement) Click(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) SendKeys(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockElement) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Attribute(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockElement) IsDisplayed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsEnabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsSelected(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) SelectByValue(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockElement) DragBy(ctx context.Context, dx, dy int) error {
	return m.Called(ctx, dx, dy).Error(0)
}

func (m *MockElement) Hover(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) ScrollIntoView(ctx context.Context, center bool) error {
	return m.Called(ctx, center).Error(0)
}

// -- Provisioning Mock --

// MockStrategy records provisioning calls. Its Provision method matches
// provision.Func.
type MockStrategy struct {
	mock.Mock
}

func (m *MockStrategy) Provision(ctx context.Context, logger *zap.Logger, cfg config.Config) (driver.Driver, error) {
	args := m.Called(ctx, logger, cfg)
	var d driver.Driver
	if v := args.Get(0); v != nil {
		d = v.(driver.Driver)
	}
	return d, args.Error(1)
}
