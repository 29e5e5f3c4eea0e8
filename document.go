package umbra

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
	"github.com/yacchi/umbra/jsonptr"
)

// Document is the interchange form of the store state.
//
//	{"settings": {"shape": "square", "size": "60", "color": "#000"},
//	 "list": [{"pk": 1, "hoff": 5, "voff": 5, "blur": 0, "spread": 0, "color": "#f00"}]}
//
// List is in stacking order. Settings is a pointer so that a missing
// "settings" key is distinguishable from zero-valued settings.
type Document struct {
	Settings *Settings `json:"settings" yaml:"settings" toml:"settings" mapstructure:"settings"`
	List     []Shadow  `json:"list" yaml:"list" toml:"list" mapstructure:"list"`
}

// Validate checks the structural rules enforced on import: settings
// present, a non-empty list and unique ids below math.MaxInt, so that the
// next id always fits.
func (d Document) Validate() error {
	if d.Settings == nil {
		return &FormatError{Path: jsonptr.Build("settings"), Reason: "missing"}
	}
	if len(d.List) == 0 {
		return &FormatError{Path: jsonptr.Build("list"), Reason: "must not be empty"}
	}
	seen := make(map[int]struct{}, len(d.List))
	for i, l := range d.List {
		if l.ID == math.MaxInt {
			return &FormatError{
				Path:   jsonptr.Build("list", i, "pk"),
				Reason: fmt.Sprintf("id %d leaves no room for new layers", l.ID),
			}
		}
		if _, dup := seen[l.ID]; dup {
			return &FormatError{
				Path:   jsonptr.Build("list", i, "pk"),
				Reason: fmt.Sprintf("duplicate id %d", l.ID),
			}
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

// clone returns a deep copy of d.
func (d Document) clone() Document {
	out := Document{List: append([]Shadow(nil), d.List...)}
	if d.Settings != nil {
		s := *d.Settings
		out.Settings = &s
	}
	return out
}

// maxID returns the largest id in the list. The list must not be empty.
func (d Document) maxID() int {
	m := d.List[0].ID
	for _, l := range d.List[1:] {
		if l.ID > m {
			m = l.ID
		}
	}
	return m
}

// DecodeDocument converts a tree produced by a codec into a Document.
//
// The tree is checked structurally first so that failures carry the JSON
// Pointer of the offending value; values are then decoded with weak typing,
// so a numeric size (size: 60 in YAML) becomes the string "60".
// All failures are *FormatError.
func DecodeDocument(tree map[string]any) (Document, error) {
	settings, ok := tree["settings"]
	if !ok || settings == nil {
		return Document{}, &FormatError{Path: jsonptr.Build("settings"), Reason: "missing"}
	}
	if _, ok := settings.(map[string]any); !ok {
		return Document{}, &FormatError{
			Path:   jsonptr.Build("settings"),
			Reason: fmt.Sprintf("must be an object, got %T", settings),
		}
	}

	raw, ok := tree["list"]
	if !ok || raw == nil {
		return Document{}, &FormatError{Path: jsonptr.Build("list"), Reason: "missing"}
	}
	list, ok := raw.([]any)
	if !ok {
		return Document{}, &FormatError{
			Path:   jsonptr.Build("list"),
			Reason: fmt.Sprintf("must be an array, got %T", raw),
		}
	}
	if len(list) == 0 {
		return Document{}, &FormatError{Path: jsonptr.Build("list"), Reason: "must not be empty"}
	}
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return Document{}, &FormatError{
				Path:   jsonptr.Build("list", i),
				Reason: fmt.Sprintf("must be an object, got %T", entry),
			}
		}
		if pk, ok := obj["pk"]; !ok || pk == nil {
			return Document{}, &FormatError{Path: jsonptr.Build("list", i, "pk"), Reason: "missing"}
		}
		for _, key := range integerKeys {
			if reason := checkInteger(obj[key]); reason != "" {
				return Document{}, &FormatError{Path: jsonptr.Build("list", i, key), Reason: reason}
			}
		}
	}

	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return Document{}, err
	}
	if err := dec.Decode(tree); err != nil {
		return Document{}, &FormatError{Reason: "cannot decode", Err: err}
	}

	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// integerKeys are the layer fields that must hold whole numbers.
var integerKeys = []string{"pk", "hoff", "voff", "blur", "spread"}

// checkInteger rejects floating point values that would be truncated or
// overflow when decoded into an int. Other types are left to the decoder.
func checkInteger(v any) string {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	default:
		return ""
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return fmt.Sprintf("must be a whole number, got %v", v)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return fmt.Sprintf("out of range: %v", v)
	}
	return ""
}
