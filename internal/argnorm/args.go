package argnorm

import (
	"fmt"
	"strings"
)

// Args is a normalized argument mapping. Accessors report an *ArgumentError
// when a field kept a value that could not be coerced.
type Args map[string]any

// Int returns the integer value of name.
func (a Args) Int(name string) (int, error) {
	switch v := a[name].(type) {
	case int:
		return v, nil
	case nil:
		return 0, &ArgumentError{Field: name, Reason: "missing"}
	default:
		return 0, &ArgumentError{Field: name, Reason: fmt.Sprintf("must be an integer, got %v", v)}
	}
}

// Bool returns the boolean value of name.
func (a Args) Bool(name string) (bool, error) {
	switch v := a[name].(type) {
	case bool:
		return v, nil
	case nil:
		return false, &ArgumentError{Field: name, Reason: "missing"}
	default:
		return false, &ArgumentError{Field: name, Reason: fmt.Sprintf("must be a boolean, got %v", v)}
	}
}

// String returns the trimmed string value of name, or "" when absent.
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the string-list value of name, or nil when absent.
func (a Args) Strings(name string) []string {
	v, _ := a[name].([]string)
	return v
}
