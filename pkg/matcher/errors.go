package matcher

import (
	"errors"
	"fmt"
)

var (
	// ErrBinaryContent indicates a file that contains NUL bytes.
	ErrBinaryContent = errors.New("binary content")
	// ErrInvalidEncoding indicates a line that is not valid UTF-8 text.
	ErrInvalidEncoding = errors.New("invalid UTF-8 text")
)

// IOError is returned when a file cannot be read as text.
type IOError struct {
	Path string
	Line int // 1-based line number, 0 when the failure is not tied to a line
	Err  error
}

func (e *IOError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("reading %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
