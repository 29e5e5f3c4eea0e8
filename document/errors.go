package document

import (
	"errors"
	"fmt"
)

// ErrNotObject is wrapped by ParseError when the document root is not an
// object/mapping/table.
var ErrNotObject = errors.New("root must be an object")

// ParseError is returned when a codec cannot decode its input.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when a codec cannot encode a value.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// NotObject returns a ParseError reporting a root of the wrong kind.
//
// Example:
//
//	return nil, document.NotObject(document.FormatYAML, root)
func NotObject(format Format, root any) *ParseError {
	return &ParseError{Format: format, Err: fmt.Errorf("%w, got %T", ErrNotObject, root)}
}
