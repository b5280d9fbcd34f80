package hydrant

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document, snapshot or hydrant does not exist.
// It is an expected condition; callers test for it with errors.Is.
var ErrNotFound = errors.New("not found")

// DecodeError reports a document whose bytes are not valid JSON.
// A corrupt document is never treated as empty.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IOError reports a disk or permission failure while writing a document.
// When a write returns an IOError the document was not updated.
type IOError struct {
	Op   string
	Name string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ValidationError reports malformed caller-supplied input. It is always
// returned before any filesystem interaction.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
