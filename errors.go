package umbra

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is matched by every *FormatError.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrNoSelection is matched by every *SelectionError.
	ErrNoSelection = errors.New("no layer selected")

	// ErrUnknownFormat is returned when no registered codec matches a
	// blob's name or media type.
	ErrUnknownFormat = errors.New("unknown document format")
)

// FormatError reports an interchange document that is syntactically valid
// but does not have the {settings, list} structure.
type FormatError struct {
	// Path is the JSON Pointer of the offending value, e.g. "/list/3/pk".
	// Empty for the document root.
	Path string

	// Reason describes the failure.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *FormatError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%v at %s: %s", ErrInvalidDocument, path, e.Reason)
}

// Is reports ErrInvalidDocument as a match.
func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidDocument
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// SelectionError is returned by selected-layer commands invoked while no
// layer is selected. The command is a no-op.
type SelectionError struct {
	// Op is the command that was rejected, e.g. "SetSelectedBlur".
	Op string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrNoSelection)
}

// Is reports ErrNoSelection as a match.
func (e *SelectionError) Is(target error) bool {
	return target == ErrNoSelection
}

// ImportError reports why one blob of an Import could not be applied.
type ImportError struct {
	// Name is the blob's name or location.
	Name string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Name, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
