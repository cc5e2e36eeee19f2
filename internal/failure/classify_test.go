package failure_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/failure"
)

type kindedErr struct{ k failure.Kind }

func (e kindedErr) Error() string             { return "kinded" }
func (e kindedErr) FailureKind() failure.Kind { return e.k }

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want failure.Kind
	}{
		{"Nil", nil, failure.Unclassified},
		{"Plain", errors.New("something odd"), failure.Unclassified},
		{"NoSuchElement", driver.NewError(driver.CodeNoSuchElement, "find", nil), failure.ElementNotFound},
		{"NotVisible", driver.NewError(driver.CodeElementNotVisible, "click", nil), failure.ElementNotVisible},
		{"OutOfBounds", driver.NewError(driver.CodeMoveTargetOutOfBounds, "drag", nil), failure.ElementNotVisible},
		{"Stale", driver.NewError(driver.CodeStaleElement, "text", nil), failure.ElementStale},
		{"Intercepted", driver.NewError(driver.CodeElementClickIntercepted, "click", nil), failure.ElementNotInteractable},
		{"InvalidState", driver.NewError(driver.CodeInvalidElementState, "clear", nil), failure.ElementNotInteractable},
		{"ScriptTimeout", driver.NewError(driver.CodeScriptTimeout, "eval", nil), failure.Timeout},
		{"NoAlert", driver.NewError(driver.CodeNoSuchAlert, "alert text", nil), failure.NoAlertPresent},
		{"NoFrame", driver.NewError(driver.CodeNoSuchFrame, "switch frame", nil), failure.FrameNotFound},
		{"SessionNotCreated", driver.NewError(driver.CodeSessionNotCreated, "new session", nil), failure.Unclassified},
		{"UnknownCode", driver.NewError(driver.CodeUnknownCommand, "x", nil), failure.Unclassified},
		{"WrappedCode", fmt.Errorf("outer: %w", driver.NewError(driver.CodeStaleElement, "x", nil)), failure.ElementStale},
		{"Deadline", context.DeadlineExceeded, failure.Timeout},
		{"Canceled", fmt.Errorf("wait: %w", context.Canceled), failure.InterruptedWait},
		{"PathError", &fs.PathError{Op: "open", Path: "/nope", Err: os.ErrNotExist}, failure.IOFailure},
		{"Permission", os.ErrPermission, failure.IOFailure},
		{"Dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, failure.GridConnectionFailure},
		{"Kinded", kindedErr{failure.FrameNotFound}, failure.FrameNotFound},
		{"KindedInvalid", kindedErr{failure.Kind(99)}, failure.Unclassified},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, failure.Classify(tc.err))
		})
	}
}

func TestClassify_EveryCodeMapsToOneKind(t *testing.T) {
	for _, code := range driver.Codes {
		k := failure.Classify(driver.NewError(code, "op", nil))
		assert.True(t, k.Valid(), "code %q produced invalid kind %d", code, k)
	}
}

func TestClassify_ErrorPrecedence(t *testing.T) {
	// A classified error wins over the code it wraps.
	inner := driver.NewError(driver.CodeNoSuchElement, "find", nil)
	outer := &failure.Error{Kind: failure.Timeout, Err: inner}
	assert.Equal(t, failure.Timeout, failure.Classify(outer))
}

func FuzzClassify(f *testing.F) {
	f.Add([]byte("no such element"))
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		raw := struct {
			Code    string
			Op      string
			Message string
			Wrap    bool
		}{}
		if err := consumer.GenerateStruct(&raw); err != nil {
			return
		}

		var err error = driver.NewError(driver.Code(raw.Code), raw.Op, errors.New(raw.Message))
		if raw.Wrap {
			err = fmt.Errorf("wrapped: %w", err)
		}

		k := failure.Classify(err)
		if !k.Valid() {
			t.Fatalf("Classify returned invalid kind %d for %v", k, err)
		}
		assert.Equal(t, k, failure.Classify(err), "Classify must be deterministic")
	})
}
