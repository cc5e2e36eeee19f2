package driver

import "strings"

// Special keys, encoded as WebDriver private-use code points. Backends map
// them onto their native key names.
const (
	KeyBackspace  = "\ue003"
	KeyTab        = "\ue004"
	KeyEnter      = "\ue007"
	KeyEscape     = "\ue00c"
	KeyArrowLeft  = "\ue012"
	KeyArrowUp    = "\ue013"
	KeyArrowRight = "\ue014"
	KeyArrowDown  = "\ue015"
	KeyDelete     = "\ue017"
)

// KeyNames maps each special key to its DOM KeyboardEvent.key name.
var KeyNames = map[string]string{
	KeyBackspace:  "Backspace",
	KeyTab:        "Tab",
	KeyEnter:      "Enter",
	KeyEscape:     "Escape",
	KeyArrowLeft:  "ArrowLeft",
	KeyArrowUp:    "ArrowUp",
	KeyArrowRight: "ArrowRight",
	KeyArrowDown:  "ArrowDown",
	KeyDelete:     "Delete",
}

// IsSpecialKey reports whether s is exactly one of the Key* constants.
func IsSpecialKey(s string) bool {
	_, ok := KeyNames[s]
	return ok
}

// Repeat returns key repeated n times; n <= 0 yields "".
func Repeat(key string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(key, n)
}
