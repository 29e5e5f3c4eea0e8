// Package yaml provides a YAML codec for interchange documents, built on
// gopkg.in/yaml.v3.
package yaml

import (
	"bytes"

	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
	"gopkg.in/yaml.v3"
)

// MediaType is the canonical media type for YAML documents (RFC 9512).
const MediaType = "application/yaml"

// indent is the number of spaces used for nested mappings and sequences.
const indent = 2

// NewCodec creates a new YAML codec.
//
// Example:
//
//	codec := yaml.NewCodec()
//	src := fs.New("shadows.yaml")
//	err := store.Save(ctx, src, codec)
func NewCodec() document.Codec {
	return format.NewCodec(document.FormatYAML, Decode, Encode, format.CodecConfig{
		MediaType:  MediaType,
		Extensions: []string{".yaml", ".yml"},
	})
}

// Decode parses YAML data into a generic tree.
//
// Empty input and a document holding only comments decode to an empty map.
func Decode(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &document.ParseError{Format: document.FormatYAML, Err: err}
	}
	if root == nil {
		return map[string]any{}, nil
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, document.NotObject(document.FormatYAML, root)
	}
	return obj, nil
}

// Encode serializes v as YAML using two-space indentation.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		return nil, &document.EncodeError{Format: document.FormatYAML, Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &document.EncodeError{Format: document.FormatYAML, Err: err}
	}
	return buf.Bytes(), nil
}
