// Package json provides a standard library (encoding/json) codec for
// interchange documents.
//
// Output is indented with two spaces and newline terminated. Formatting of
// the original input is not preserved.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
)

// MediaType is the canonical media type for JSON documents.
const MediaType = "application/json"

// NewCodec creates a new JSON codec.
//
// Example:
//
//	codec := json.NewCodec()
//	blob, err := store.Export(codec)
func NewCodec() document.Codec {
	return format.NewCodec(document.FormatJSON, Decode, Encode, format.CodecConfig{
		MediaType:  MediaType,
		Extensions: []string{".json"},
	})
}

// Decode parses JSON data into a generic tree.
//
// The root value must be a JSON object. Empty/whitespace input and a literal
// null are treated as an empty object.
func Decode(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	var root any
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, &document.ParseError{Format: document.FormatJSON, Err: err}
	}

	if root == nil {
		return map[string]any{}, nil
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, document.NotObject(document.FormatJSON, root)
	}
	return obj, nil
}

// Encode serializes v as indented JSON.
func Encode(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, &document.EncodeError{Format: document.FormatJSON, Err: err}
	}
	return append(b, '\n'), nil
}
