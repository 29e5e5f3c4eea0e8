package toml

import (
	"errors"
	"strings"
	"testing"

	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/umbratest"
)

// TestCodec_Compliance runs the standard umbratest compliance tests.
func TestCodec_Compliance(t *testing.T) {
	umbratest.NewCodecTester(t, NewCodec(),
		umbratest.WithInvalidInput([]byte("[settings\nshape = \n")),
	).TestAll()
}

func TestDecode_ArrayOfTables(t *testing.T) {
	data := []byte(`
[settings]
shape = "circle"
size = "32"
color = "#222"

[[list]]
pk = 4
hoff = -2
voff = 3
blur = 1
spread = 0
color = "red"

[[list]]
pk = 8
hoff = 0
voff = 0
blur = 0
spread = 0
color = "blue"
`)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	list, ok := got["list"].([]any)
	if !ok {
		t.Fatalf("list = %T, want []any", got["list"])
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	first := list[0].(map[string]any)
	if first["hoff"] != int64(-2) {
		t.Errorf("list[0].hoff = %#v, want int64(-2)", first["hoff"])
	}
}

func TestEncode_ArrayOfTables(t *testing.T) {
	type item struct {
		PK int `toml:"pk"`
	}
	type doc struct {
		List []item `toml:"list"`
	}

	got, err := Encode(doc{List: []item{{PK: 1}, {PK: 2}}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if n := strings.Count(string(got), "[[list]]"); n != 2 {
		t.Errorf("Encode() has %d [[list]] headers, want 2:\n%s", n, got)
	}
}

func TestEncode_MarshalError(t *testing.T) {
	orig := tomlMarshal
	t.Cleanup(func() { tomlMarshal = orig })

	cause := errors.New("boom")
	tomlMarshal = func(any) ([]byte, error) { return nil, cause }

	_, err := Encode(map[string]any{})
	var encErr *document.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("Encode() error = %v, want *document.EncodeError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}
