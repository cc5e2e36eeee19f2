package driver

import (
	"errors"
	"fmt"
)

// Code is a W3C WebDriver error code. Backends translate their native
// failures into one of these so that classification stays backend agnostic.
type Code string

const (
	CodeNoSuchElement           Code = "no such element"
	CodeElementNotVisible       Code = "element not visible"
	CodeStaleElement            Code = "stale element reference"
	CodeElementNotInteractable  Code = "element not interactable"
	CodeElementClickIntercepted Code = "element click intercepted"
	CodeInvalidElementState     Code = "invalid element state"
	CodeMoveTargetOutOfBounds   Code = "move target out of bounds"
	CodeTimeout                 Code = "timeout"
	CodeScriptTimeout           Code = "script timeout"
	CodeNoSuchAlert             Code = "no such alert"
	CodeUnexpectedAlertOpen     Code = "unexpected alert open"
	CodeNoSuchFrame             Code = "no such frame"
	CodeNoSuchWindow            Code = "no such window"
	CodeSessionNotCreated       Code = "session not created"
	CodeInvalidSessionID        Code = "invalid session id"
	CodeInvalidSelector         Code = "invalid selector"
	CodeInvalidArgument         Code = "invalid argument"
	CodeJavaScriptError         Code = "javascript error"
	CodeUnknownCommand          Code = "unknown command"
	CodeUnsupportedOperation    Code = "unsupported operation"
	CodeUnknownError            Code = "unknown error"
)

// Codes lists every code a backend may report.
var Codes = []Code{
	CodeNoSuchElement,
	CodeElementNotVisible,
	CodeStaleElement,
	CodeElementNotInteractable,
	CodeElementClickIntercepted,
	CodeInvalidElementState,
	CodeMoveTargetOutOfBounds,
	CodeTimeout,
	CodeScriptTimeout,
	CodeNoSuchAlert,
	CodeUnexpectedAlertOpen,
	CodeNoSuchFrame,
	CodeNoSuchWindow,
	CodeSessionNotCreated,
	CodeInvalidSessionID,
	CodeInvalidSelector,
	CodeInvalidArgument,
	CodeJavaScriptError,
	CodeUnknownCommand,
	CodeUnsupportedOperation,
	CodeUnknownError,
}

// Error is the raw failure raised by a Driver or Element.
type Error struct {
	Code Code
	// Op is the capability call that failed, e.g. "click" or "switch frame".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a WebDriver code.
func NewError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Errorf builds an Error whose cause is a formatted message.
func Errorf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the WebDriver code carried anywhere in err's chain.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}
