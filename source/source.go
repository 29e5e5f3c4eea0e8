// Package source provides interfaces and implementations for document blob
// sources. A source represents where an interchange document comes from and
// optionally where it can be written back to.
// Sources are responsible only for I/O; parsing is handled by codecs.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/yacchi/umbra/types"
	"github.com/yacchi/umbra/watcher"
)

// SourceType is an alias for types.SourceType.
type SourceType = types.SourceType

// Standard source types.
const (
	TypeFS    SourceType = "fs"
	TypeBytes SourceType = "bytes"
)

// ErrSaveNotSupported is returned when Save is called on a source that doesn't support saving.
var ErrSaveNotSupported = errors.New("save not supported for this source")

// ErrNotExist is wrapped by NotExistError when the underlying blob is missing.
var ErrNotExist = errors.New("source does not exist")

// NotExistError reports a missing blob at a location.
type NotExistError struct {
	Location string
	Err      error
}

func (e *NotExistError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Location, ErrNotExist)
	}
	return fmt.Sprintf("%s: %v: %v", e.Location, ErrNotExist, e.Err)
}

// Is reports ErrNotExist as a match.
func (e *NotExistError) Is(target error) bool {
	return target == ErrNotExist
}

func (e *NotExistError) Unwrap() error {
	return e.Err
}

// NewNotExistError creates a NotExistError for location caused by err.
func NewNotExistError(location string, err error) *NotExistError {
	return &NotExistError{Location: location, Err: err}
}

// UpdateFunc generates the new bytes to save.
// It receives the current bytes of the source (nil if the blob does not
// exist yet) and returns the bytes to write.
type UpdateFunc func(current []byte) ([]byte, error)

// Source loads and optionally saves raw document data.
// Sources are format-agnostic; they only handle raw bytes.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Load reads the raw document data from the source.
	Load(ctx context.Context) ([]byte, error)

	// Save writes data produced by updateFunc back to the source.
	// Returns ErrSaveNotSupported if the source doesn't support saving.
	//
	// Example:
	//   err := src.Save(ctx, func(current []byte) ([]byte, error) {
	//     return blob.Data, nil
	//   })
	Save(ctx context.Context, updateFunc UpdateFunc) error

	// CanSave returns true if the source supports saving.
	CanSave() bool
}

// WatchableSource is a Source that can report changes to its data.
type WatchableSource interface {
	Source

	// Watch returns a watcher reporting new data for this source.
	// The watcher is not started.
	Watch() (watcher.Watcher, error)
}

// Describe collects the Details of src. Sources that do not implement
// types.DetailsFiller only report their type.
func Describe(src Source) types.Details {
	d := types.Details{Source: src.Type()}
	if f, ok := src.(types.DetailsFiller); ok {
		f.FillDetails(&d)
	}
	return d
}
