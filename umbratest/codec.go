package umbratest

import (
	"errors"
	"mime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yacchi/umbra/document"
)

// SampleTree returns a document tree with two shadow layers, the shape every
// codec must round-trip.
func SampleTree() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"shape": "square",
			"size":  "60",
			"color": "#000000",
		},
		"list": []any{
			map[string]any{"pk": 1, "hoff": 5, "voff": 5, "blur": 0, "spread": 0, "color": "#ff0000"},
			map[string]any{"pk": 2, "hoff": -10, "voff": 10, "blur": 4, "spread": 1, "color": "rgba(0, 0, 0, 0.5)"},
		},
	}
}

// CodecTesterOption configures CodecTester behavior.
type CodecTesterOption func(*CodecTester)

// WithInvalidInput sets input the codec must reject with a *document.ParseError.
func WithInvalidInput(data []byte) CodecTesterOption {
	return func(ct *CodecTester) {
		ct.invalid = data
	}
}

// WithNonObjectInput sets syntactically valid input whose root is not an
// object. The codec must reject it with document.ErrNotObject.
func WithNonObjectInput(data []byte) CodecTesterOption {
	return func(ct *CodecTester) {
		ct.nonObject = data
	}
}

// CodecTester verifies document.Codec implementations.
type CodecTester struct {
	t         *testing.T
	codec     document.Codec
	invalid   []byte
	nonObject []byte
}

// NewCodecTester creates a CodecTester for codec.
func NewCodecTester(t *testing.T, codec document.Codec, opts ...CodecTesterOption) *CodecTester {
	ct := &CodecTester{t: t, codec: codec}
	for _, opt := range opts {
		opt(ct)
	}
	return ct
}

// TestAll runs all standard compliance tests for codecs.
func (ct *CodecTester) TestAll() {
	ct.t.Run("Format", ct.testFormat)
	ct.t.Run("MediaType", ct.testMediaType)
	ct.t.Run("Extensions", ct.testExtensions)
	ct.t.Run("DecodeEmpty", ct.testDecodeEmpty)
	ct.t.Run("RoundTrip", ct.testRoundTrip)
	ct.t.Run("Invalid", ct.testInvalid)
	ct.t.Run("NonObject", ct.testNonObject)
}

func (ct *CodecTester) testFormat(t *testing.T) {
	check(t, ct.codec.Format() != "", "Format() returned empty string")
}

func (ct *CodecTester) testMediaType(t *testing.T) {
	mt := ct.codec.MediaType()
	require(t, mt != "", "MediaType() returned empty string")
	_, _, err := mime.ParseMediaType(mt)
	check(t, err == nil, "MediaType() = %q is not a valid media type: %v", mt, err)
}

func (ct *CodecTester) testExtensions(t *testing.T) {
	exts := ct.codec.Extensions()
	require(t, len(exts) > 0, "Extensions() returned no extensions")
	for _, ext := range exts {
		check(t, strings.HasPrefix(ext, "."), "extension %q has no leading dot", ext)
	}
}

func (ct *CodecTester) testDecodeEmpty(t *testing.T) {
	for _, in := range [][]byte{nil, []byte(""), []byte("  \n")} {
		got, err := ct.codec.Decode(in)
		requireNoError(t, err, "Decode(%q) error = %v", in, err)
		check(t, got != nil && len(got) == 0, "Decode(%q) = %v, want empty map", in, got)
	}
}

func (ct *CodecTester) testRoundTrip(t *testing.T) {
	want := SampleTree()

	data, err := ct.codec.Encode(want)
	requireNoError(t, err, "Encode() error = %v", err)
	require(t, len(data) > 0, "Encode() returned no data")

	got, err := ct.codec.Decode(data)
	requireNoError(t, err, "Decode() error = %v", err)

	if diff := cmp.Diff(want, got, NormalizeNumbers); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func (ct *CodecTester) testInvalid(t *testing.T) {
	if ct.invalid == nil {
		t.Skip("no invalid input configured")
	}
	_, err := ct.codec.Decode(ct.invalid)
	require(t, err != nil, "Decode(invalid) error = nil, want error")

	var pe *document.ParseError
	check(t, errors.As(err, &pe), "Decode(invalid) error = %T, want *document.ParseError", err)
}

func (ct *CodecTester) testNonObject(t *testing.T) {
	if ct.nonObject == nil {
		t.Skip("no non-object input configured")
	}
	_, err := ct.codec.Decode(ct.nonObject)
	require(t, err != nil, "Decode(non-object) error = nil, want error")
	check(t, errors.Is(err, document.ErrNotObject),
		"Decode(non-object) error = %v, want document.ErrNotObject", err)
}
