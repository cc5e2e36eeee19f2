package failure

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// codeKinds maps every WebDriver code onto the taxonomy. Codes absent from
// this table classify as Unclassified.
var codeKinds = map[driver.Code]Kind{
	driver.CodeNoSuchElement:           ElementNotFound,
	driver.CodeElementNotVisible:       ElementNotVisible,
	driver.CodeMoveTargetOutOfBounds:   ElementNotVisible,
	driver.CodeStaleElement:            ElementStale,
	driver.CodeElementNotInteractable:  ElementNotInteractable,
	driver.CodeElementClickIntercepted: ElementNotInteractable,
	driver.CodeInvalidElementState:     ElementNotInteractable,
	driver.CodeTimeout:                 Timeout,
	driver.CodeScriptTimeout:           Timeout,
	driver.CodeNoSuchAlert:             NoAlertPresent,
	driver.CodeNoSuchFrame:             FrameNotFound,
}

// Classify maps a raw failure onto exactly one Kind. It is pure and total:
// anything it does not recognise, including nil, is Unclassified.
//
// Precedence follows the error chain from the outside in: an error that
// already carries a classification wins, then WebDriver codes, then context
// expiry, then I/O and network failures.
func Classify(err error) Kind {
	if err == nil {
		return Unclassified
	}

	var kinded Kinded
	if errors.As(err, &kinded) {
		if k := kinded.FailureKind(); k.Valid() {
			return k
		}
		return Unclassified
	}

	if code, ok := driver.CodeOf(err); ok {
		return classifyCode(code)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return InterruptedWait
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrShortWrite) {
		return IOFailure
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return GridConnectionFailure
	}

	return Unclassified
}

func classifyCode(code driver.Code) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return Unclassified
}
