// Package drivertest provides an in-memory driver.Driver for tests. Pages are
// modelled as elements registered under the exact locators that find them;
// elements can appear or become visible at a given time on the driver's
// clock, which lets polling behaviour be tested against a manual clock.
package drivertest

import (
	"time"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// Node is one element of the fake page. Fields are read under the driver's
// lock, so tests should only change them through Driver.Update once the
// driver is in use.
type Node struct {
	Tag   string
	Text  string
	Value string
	Attrs map[string]string
	// Options lists the values of a select's options.
	Options []string

	Displayed bool
	Enabled   bool
	Selected  bool
	Editable  bool
	// Obscured makes clicks land on another element.
	Obscured bool

	// AppearAt is when the element enters the DOM, relative to the driver's
	// start. VisibleAt is when it becomes displayed.
	AppearAt  time.Duration
	VisibleAt time.Duration

	// OnClick runs after a successful click, outside the driver lock.
	OnClick func()

	detached bool

	Clicks  int
	Hovers  int
	Scrolls int
	Keys    []string
	Drags   [][2]int
}

// Button returns a visible, enabled element with the given text.
func Button(text string) *Node {
	return &Node{Tag: "button", Text: text, Displayed: true, Enabled: true}
}

// Input returns a visible, editable text field holding value.
func Input(value string) *Node {
	return &Node{Tag: "input", Value: value, Displayed: true, Enabled: true, Editable: true, Attrs: map[string]string{"type": "text"}}
}

// Select returns a visible select offering the given option values.
func Select(values ...string) *Node {
	return &Node{Tag: "select", Options: values, Displayed: true, Enabled: true}
}

// Slider returns a visible range input at value.
func Slider(value string) *Node {
	return &Node{Tag: "input", Value: value, Displayed: true, Enabled: true, Attrs: map[string]string{"type": "range"}}
}

// Text returns a visible element rendering text.
func Text(text string) *Node {
	return &Node{Tag: "span", Text: text, Displayed: true, Enabled: true}
}

// document is one browsing context: the top document or a frame's.
type document struct {
	elements map[driver.Locator][]*Node
	// frames are the child frames in document order.
	frames []*frame
}

type frame struct {
	name string
	doc  *document
}

func newDocument() *document {
	return &document{elements: make(map[driver.Locator][]*Node)}
}

type alert struct {
	kind    string
	message string
	at      time.Duration
	answer  string
}

type window struct {
	handle string
	url    string
	top    *document
	alerts []*alert
	closed bool
}
