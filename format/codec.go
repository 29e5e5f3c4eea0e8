// Package format provides common utilities for document codec implementations.
package format

import "github.com/yacchi/umbra/document"

// DecodeFunc parses bytes into a generic document tree.
type DecodeFunc func([]byte) (map[string]any, error)

// EncodeFunc serializes a value into bytes.
type EncodeFunc func(any) ([]byte, error)

// CodecConfig configures a codec created by NewCodec.
type CodecConfig struct {
	// MediaType is the canonical media type for the format.
	MediaType string

	// Extensions lists recognised file extensions, leading dot included.
	// The first entry is used when suggesting export file names.
	Extensions []string
}

// NewCodec creates a Codec with the given format and functions.
//
// Example:
//
//	codec := format.NewCodec(document.FormatYAML, yaml.Decode, yaml.Encode, format.CodecConfig{
//	    MediaType:  "application/yaml",
//	    Extensions: []string{".yaml", ".yml"},
//	})
func NewCodec(f document.Format, decode DecodeFunc, encode EncodeFunc, cfg CodecConfig) document.Codec {
	exts := make([]string, len(cfg.Extensions))
	copy(exts, cfg.Extensions)
	return &codec{
		format:     f,
		decode:     decode,
		encode:     encode,
		mediaType:  cfg.MediaType,
		extensions: exts,
	}
}

// codec implements document.Codec using the provided functions.
type codec struct {
	format     document.Format
	decode     DecodeFunc
	encode     EncodeFunc
	mediaType  string
	extensions []string
}

// Ensure codec implements the document.Codec interface.
var _ document.Codec = (*codec)(nil)

func (c *codec) Format() document.Format {
	return c.format
}

func (c *codec) MediaType() string {
	return c.mediaType
}

func (c *codec) Extensions() []string {
	out := make([]string, len(c.extensions))
	copy(out, c.extensions)
	return out
}

func (c *codec) Decode(data []byte) (map[string]any, error) {
	return c.decode(data)
}

func (c *codec) Encode(v any) ([]byte, error) {
	return c.encode(v)
}

// FileName suggests a file name for a document named base in the codec's
// format, e.g. FileName(codec, "umbra") -> "umbra.json".
func FileName(c document.Codec, base string) string {
	exts := c.Extensions()
	if len(exts) == 0 {
		return base + "." + string(c.Format())
	}
	return base + exts[0]
}
