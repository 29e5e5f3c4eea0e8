// Package jsonc provides a JSONC (JSON with comments) codec for interchange
// documents, built on github.com/tailscale/hujson.
//
// Comments and trailing commas are accepted on input and dropped on decode.
// Output is standard JSON laid out by hujson's formatter.
package jsonc

import (
	"bytes"
	"encoding/json"

	"github.com/tailscale/hujson"
	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
)

// MediaType is the media type used for JSONC documents.
const MediaType = "application/jsonc"

// NewCodec creates a new JSONC codec.
//
// Example:
//
//	codec := jsonc.NewCodec()
//	tree, err := codec.Decode(data)
func NewCodec() document.Codec {
	return format.NewCodec(document.FormatJSONC, Decode, Encode, format.CodecConfig{
		MediaType:  MediaType,
		Extensions: []string{".jsonc"},
	})
}

// Decode parses JSONC data into a generic tree.
// Returns an empty map if data is nil or whitespace.
func Decode(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	v, err := hujson.Parse(trimmed)
	if err != nil {
		return nil, &document.ParseError{Format: document.FormatJSONC, Err: err}
	}

	// Standardize to remove comments for decoding
	v.Standardize()

	var root any
	if err := json.Unmarshal(v.Pack(), &root); err != nil {
		return nil, &document.ParseError{Format: document.FormatJSONC, Err: err}
	}
	if root == nil {
		return map[string]any{}, nil
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, document.NotObject(document.FormatJSONC, root)
	}
	return obj, nil
}

// Encode serializes v as JSON and formats it with hujson.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &document.EncodeError{Format: document.FormatJSONC, Err: err}
	}

	root, err := hujson.Parse(b)
	if err != nil {
		return nil, &document.EncodeError{Format: document.FormatJSONC, Err: err}
	}
	root.Format()

	out := root.Pack()
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}
