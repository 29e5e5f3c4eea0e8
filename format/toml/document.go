// Package toml provides a TOML codec for interchange documents, built on
// github.com/pelletier/go-toml/v2.
//
// The shadow list is written as an array of tables ([[list]]).
package toml

import (
	"bytes"

	"github.com/pelletier/go-toml/v2"
	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
)

// MediaType is the canonical media type for TOML documents.
const MediaType = "application/toml"

var tomlMarshal = toml.Marshal
var tomlUnmarshal = toml.Unmarshal

// NewCodec creates a new TOML codec.
//
// Example:
//
//	codec := toml.NewCodec()
//	blob, err := store.Export(codec) // blob.Name == "umbra.toml"
func NewCodec() document.Codec {
	return format.NewCodec(document.FormatTOML, Decode, Encode, format.CodecConfig{
		MediaType:  MediaType,
		Extensions: []string{".toml"},
	})
}

// Decode parses TOML data into a generic tree.
// Returns an empty map if data is nil or empty.
func Decode(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var result map[string]any
	if err := tomlUnmarshal(data, &result); err != nil {
		return nil, &document.ParseError{Format: document.FormatTOML, Err: err}
	}

	if result == nil {
		return map[string]any{}, nil
	}
	return result, nil
}

// Encode serializes v as TOML.
func Encode(v any) ([]byte, error) {
	b, err := tomlMarshal(v)
	if err != nil {
		return nil, &document.EncodeError{Format: document.FormatTOML, Err: err}
	}
	return b, nil
}
