package format

import (
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yacchi/umbra/document"
)

// Registry maps formats, media types and file extensions to codecs.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	codecs     map[document.Format]document.Codec
	mediaTypes map[string]document.Format
	extensions map[string]document.Format
}

// NewRegistry creates a registry holding the given codecs.
// It panics if two codecs share a format; use Register for fallible setup.
func NewRegistry(codecs ...document.Codec) *Registry {
	r := &Registry{
		codecs:     make(map[document.Format]document.Codec),
		mediaTypes: make(map[string]document.Format),
		extensions: make(map[string]document.Format),
	}
	for _, c := range codecs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a codec together with its media type and extensions.
// Returns an error if a codec for the same format is already registered.
func (r *Registry) Register(c document.Codec, mediaTypeAliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := c.Format()
	if _, exists := r.codecs[f]; exists {
		return fmt.Errorf("codec for format %q already registered", f)
	}
	r.codecs[f] = c

	for _, mt := range append([]string{c.MediaType()}, mediaTypeAliases...) {
		if mt == "" {
			continue
		}
		r.mediaTypes[strings.ToLower(mt)] = f
	}
	for _, ext := range c.Extensions() {
		r.extensions[strings.ToLower(ext)] = f
	}
	return nil
}

// Lookup returns the codec registered for the given format.
func (r *Registry) Lookup(f document.Format) (document.Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[f]
	return c, ok
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []document.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]document.Format, 0, len(r.codecs))
	for f := range r.codecs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Classify picks the codec for a blob from its declared media type or, failing
// that, from the extension of its name. A structured syntax suffix such as
// "application/vnd.umbra+json" selects the suffix format.
// Returns false if the blob does not look like any registered format.
func (r *Registry) Classify(name, mediaType string) (document.Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mediaType != "" {
		if c, ok := r.byMediaTypeLocked(mediaType); ok {
			return c, true
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil, false
	}
	f, ok := r.extensions[ext]
	if !ok {
		return nil, false
	}
	return r.codecs[f], true
}

// ForPath is Classify without a media type.
func (r *Registry) ForPath(name string) (document.Codec, bool) {
	return r.Classify(name, "")
}

func (r *Registry) byMediaTypeLocked(mediaType string) (document.Codec, bool) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return nil, false
	}
	if f, ok := r.mediaTypes[mt]; ok {
		return r.codecs[f], true
	}
	if i := strings.LastIndexByte(mt, '+'); i >= 0 {
		if c, ok := r.codecs[document.Format(mt[i+1:])]; ok {
			return c, true
		}
	}
	return nil, false
}
