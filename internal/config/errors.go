package config

import (
	"fmt"
	"strings"
)

// InvalidKeysError reports configuration keys that are not recognized.
// Keys are sorted.
type InvalidKeysError struct {
	Keys []string
}

func (e *InvalidKeysError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = "'" + k + "'"
	}
	return fmt.Sprintf("Invalid configuration key(s): %s.", strings.Join(quoted, ", "))
}

// InvalidValueTypeError reports a known key holding a value of the wrong
// type.
type InvalidValueTypeError struct {
	Key string
}

func (e *InvalidValueTypeError) Error() string {
	return fmt.Sprintf("Invalid value type for '%s'.", e.Key)
}

// InvalidPatternError reports a filter key whose value does not compile as
// a regular expression.
type InvalidPatternError struct {
	Key string
	Err error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("Invalid regular expression for '%s'.", e.Key)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }
