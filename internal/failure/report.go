package failure

import (
	"fmt"
	"strings"
	"time"
)

// DiagnosticReport is the structured record attached to every unrecoverable
// interaction failure. It is built once and never mutated.
type DiagnosticReport struct {
	Operation string    `json:"operation"`
	Target    string    `json:"target"`
	Kind      Kind      `json:"kind"`
	Input     string    `json:"input"`
	Cause     string    `json:"cause,omitempty"`
	At        time.Time `json:"at"`
}

// Report builds a DiagnosticReport. It only allocates.
func Report(operation, target string, kind Kind, input string) DiagnosticReport {
	return DiagnosticReport{
		Operation: operation,
		Target:    target,
		Kind:      kind,
		Input:     input,
		At:        time.Now(),
	}
}

// WithCause returns a copy of r carrying the raw failure's message.
func (r DiagnosticReport) WithCause(err error) DiagnosticReport {
	if err != nil {
		r.Cause = err.Error()
	}
	return r
}

// Hints returns the troubleshooting hints shown for the report's kind.
func (r DiagnosticReport) Hints() []string {
	if h, ok := kindHints[r.Kind]; ok {
		return append(h[:len(h):len(h)], commonHints...)
	}
	return commonHints
}

const rule = "=============================="

func banner(title string) string {
	return fmt.Sprintf("%s %s %s", rule, title, rule)
}

// String renders the three-section message: error identity, the input data
// in use, then troubleshooting hints.
func (r DiagnosticReport) String() string {
	var b strings.Builder

	b.WriteString(banner("ERROR"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s - %s: %s", r.Kind, r.At.Format("2006-01-02 15:04:05.000"), r.Operation, r.Target)
	if r.Cause != "" {
		fmt.Fprintf(&b, " (%s)", r.Cause)
	}
	b.WriteString("\n\n")

	b.WriteString(banner("INPUT DATA"))
	b.WriteString("\n\n")
	if r.Input == "" {
		b.WriteString("<none>")
	} else {
		b.WriteString(r.Input)
	}
	b.WriteString("\n\n")

	b.WriteString(banner("HINTS"))
	b.WriteString("\n\n")
	for _, h := range r.Hints() {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	return b.String()
}

var commonHints = []string{
	"Check that the locator is correct.",
	"Check that the element is not inside an iframe.",
	"Check that the page object was constructed with a live session.",
}

var kindHints = map[Kind][]string{
	ElementNotFound:        {"The element never appeared; confirm the page finished loading."},
	ElementNotVisible:      {"The element exists but is hidden or off screen; try scrolling to it first."},
	ElementStale:           {"The page re-rendered the element; locate it again after the update."},
	ElementNotInteractable: {"Another element may be covering the target, or it is disabled."},
	Timeout:                {"Consider raising the wait timeout if the page is slow to settle."},
	NoAlertPresent:         {"No dialog was open; confirm the action that triggers it ran."},
	FrameNotFound:          {"The frame index or name does not exist in the current context."},
	GridConnectionFailure:  {"Check that the grid endpoint is reachable and the browser kind is supported."},
	InterruptedWait:        {"The wait was cancelled before the condition held."},
	IOFailure:              {"Check that the evidence directory exists and is writable."},
}
