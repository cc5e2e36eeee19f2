package failure

import (
	"errors"
	"fmt"
)

// Error is the single error type surfaced by interaction operations.
type Error struct {
	Kind   Kind
	Report DiagnosticReport
	Err    error
}

// New classifies err and wraps it together with its report.
func New(operation, target, input string, err error) *Error {
	kind := Classify(err)
	return &Error{
		Kind:   kind,
		Report: Report(operation, target, kind, input).WithCause(err),
		Err:    err,
	}
}

// Newf builds an Error of an explicit kind, for failures detected by the
// caller rather than raised by a backend.
func Newf(kind Kind, operation, target, input, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Kind:   kind,
		Report: Report(operation, target, kind, input).WithCause(err),
		Err:    err,
	}
}

// Wrap attaches an explicit kind to err, overriding what Classify would say.
func Wrap(kind Kind, operation, target, input string, err error) *Error {
	return &Error{
		Kind:   kind,
		Report: Report(operation, target, kind, input).WithCause(err),
		Err:    err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q: %s", e.Report.Operation, e.Report.Target, e.Kind)
	}
	return fmt.Sprintf("%s %q: %s: %v", e.Report.Operation, e.Report.Target, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FailureKind implements Kinded.
func (e *Error) FailureKind() Kind { return e.Kind }

// KindOf returns the classification of err. A nil error has no kind and
// reports Unclassified with ok set to false.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return Unclassified, false
	}
	return Classify(err), true
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// ReportOf extracts the DiagnosticReport carried by err, if any.
func ReportOf(err error) (DiagnosticReport, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Report, true
	}
	return DiagnosticReport{}, false
}
