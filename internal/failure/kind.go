// internal/failure/kind.go
//
// Package failure owns the closed taxonomy of interaction outcomes. Every raw
// error raised by a browser backend, the wait engine or evidence capture is
// mapped to exactly one Kind before it leaves an interaction operation.
package failure

import "strings"

// Kind is a member of the closed failure taxonomy. The zero value is
// Unclassified, so an unmapped failure can never be mistaken for success.
type Kind int

const (
	Unclassified Kind = iota
	ElementNotFound
	ElementNotVisible
	ElementStale
	ElementNotInteractable
	Timeout
	NoAlertPresent
	FrameNotFound
	GridConnectionFailure
	InterruptedWait
	IOFailure

	kindCount
)

var kindNames = [...]string{
	Unclassified:           "Unclassified",
	ElementNotFound:        "ElementNotFound",
	ElementNotVisible:      "ElementNotVisible",
	ElementStale:           "ElementStale",
	ElementNotInteractable: "ElementNotInteractable",
	Timeout:                "Timeout",
	NoAlertPresent:         "NoAlertPresent",
	FrameNotFound:          "FrameNotFound",
	GridConnectionFailure:  "GridConnectionFailure",
	InterruptedWait:        "InterruptedWait",
	IOFailure:              "IOFailure",
}

func (k Kind) String() string {
	if !k.Valid() {
		return "Unclassified"
	}
	return kindNames[k]
}

// Valid reports whether k is a member of the taxonomy.
func (k Kind) Valid() bool { return k >= Unclassified && k < kindCount }

// Kinds returns every member of the taxonomy in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Unclassified; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a kind by name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	for k := Unclassified; k < kindCount; k++ {
		if strings.EqualFold(kindNames[k], name) {
			return k, true
		}
	}
	return Unclassified, false
}

// Kinded is implemented by errors that already know their classification,
// such as the wait engine's timeout and interruption errors.
type Kinded interface {
	error
	FailureKind() Kind
}

// Set is an immutable set of kinds.
type Set uint32

// NewSet builds a set from kinds. Invalid kinds are ignored.
func NewSet(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		if k.Valid() {
			s |= 1 << uint(k)
		}
	}
	return s
}

// Has reports whether k is in the set.
func (s Set) Has(k Kind) bool { return k.Valid() && s&(1<<uint(k)) != 0 }

// With returns a copy of s that also contains kinds.
func (s Set) With(kinds ...Kind) Set { return s | NewSet(kinds...) }

// Kinds lists the members of s in declaration order.
func (s Set) Kinds() []Kind {
	var out []Kind
	for k := Unclassified; k < kindCount; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, kindCount)
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
