// Package bytes provides a byte slice based document source.
// This source is read-only; Save operations return ErrSaveNotSupported.
//
// It models a blob that was handed over by a collaborator (an uploaded file,
// a request body) together with its name and declared media type.
package bytes

import (
	"context"

	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/types"
	"github.com/yacchi/umbra/watcher"
)

// Source loads raw document data from a byte slice.
type Source struct {
	data      []byte
	name      string
	mediaType string
}

// Ensure Source implements the source.WatchableSource interface.
var _ source.WatchableSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithName sets the blob name (typically the original file name).
// The extension is used to classify the blob on import.
func WithName(name string) Option {
	return func(s *Source) {
		s.name = name
	}
}

// WithMediaType sets the declared media type of the blob.
func WithMediaType(mediaType string) Option {
	return func(s *Source) {
		s.mediaType = mediaType
	}
}

// New creates a source from raw bytes. The data is copied.
//
// Example:
//
//	src := bytes.New(body, bytes.WithName("umbra.json"))
//	src := bytes.New(body, bytes.WithMediaType("application/json"))
func New(data []byte, opts ...Option) *Source {
	s := &Source{
		data: append([]byte(nil), data...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromString creates a source from a string.
//
// Example:
//
//	src := bytes.FromString(`{"settings": {...}, "list": [...]}`, bytes.WithName("a.json"))
func FromString(data string, opts ...Option) *Source {
	return New([]byte(data), opts...)
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return source.TypeBytes
}

// FillDetails implements types.DetailsFiller.
func (s *Source) FillDetails(d *types.Details) {
	d.Name = s.name
	d.MediaType = s.mediaType
	d.Watcher = watcher.TypeNoop
}

// Load implements the source.Source interface.
// Returns a copy of the data to prevent callers from modifying the source.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result, nil
}

// Save implements the source.Source interface.
// This source does not support saving and always returns ErrSaveNotSupported.
func (s *Source) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	return source.ErrSaveNotSupported
}

// CanSave returns false because byte slice sources do not support saving.
func (s *Source) CanSave() bool {
	return false
}

// Watch implements the source.WatchableSource interface.
// Byte slice sources are immutable, so the watcher never fires.
func (s *Source) Watch() (watcher.Watcher, error) {
	return watcher.NewNoop(), nil
}
