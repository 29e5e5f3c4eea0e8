// Package document defines the contract shared by interchange document codecs.
//
// A codec converts between raw bytes and a generic map[string]any tree.
// Structural interpretation of that tree (settings, shadow list) belongs to
// the umbra package; codecs only deal with syntax.
package document

import "github.com/yacchi/umbra/types"

// Format is an alias for types.DocumentFormat.
type Format = types.DocumentFormat

const (
	// FormatJSON represents standard JSON (encoding/json).
	FormatJSON Format = "json"

	// FormatJSONC represents JSON with comments (using github.com/tailscale/hujson).
	FormatJSONC Format = "jsonc"

	// FormatYAML represents YAML (using gopkg.in/yaml.v3).
	FormatYAML Format = "yaml"

	// FormatTOML represents TOML (using github.com/pelletier/go-toml/v2).
	FormatTOML Format = "toml"
)

// Codec decodes and encodes interchange documents of one format.
type Codec interface {
	// Format returns the document format handled by this codec.
	Format() Format

	// MediaType returns the canonical media type, e.g. "application/json".
	MediaType() string

	// Extensions returns the file extensions (with leading dot) recognised
	// for this format. The first entry is used for suggested file names.
	Extensions() []string

	// Decode parses raw bytes into a generic tree.
	// Empty or whitespace-only input yields an empty map.
	// Syntax errors and non-object roots are reported as *ParseError.
	Decode(data []byte) (map[string]any, error)

	// Encode serializes v. Struct values are encoded through their
	// format-specific field tags.
	Encode(v any) ([]byte, error)
}
