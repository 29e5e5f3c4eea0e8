package jsonc_test

import (
	"testing"

	"github.com/yacchi/umbra/format/jsonc"
	"github.com/yacchi/umbra/umbratest"
)

// TestCodec_Compliance runs the standard umbratest compliance tests.
func TestCodec_Compliance(t *testing.T) {
	umbratest.NewCodecTester(t, jsonc.NewCodec(),
		umbratest.WithInvalidInput([]byte(`{"list": [ /* unterminated`)),
		umbratest.WithNonObjectInput([]byte(`["a", "b",]`)),
	).TestAll()
}

func TestDecode_CommentsAndTrailingCommas(t *testing.T) {
	data := []byte(`{
  // exported from the editor
  "settings": {
    "shape": "circle", /* round */
    "size": "40",
  },
  "list": [
    {"pk": 3, "color": "#fff",},
  ],
}`)

	got, err := jsonc.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	settings, ok := got["settings"].(map[string]any)
	if !ok {
		t.Fatalf("settings = %T, want map[string]any", got["settings"])
	}
	if settings["shape"] != "circle" {
		t.Errorf("settings.shape = %v, want circle", settings["shape"])
	}

	list, ok := got["list"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("list = %#v, want one element", got["list"])
	}
}

func TestEncode_EndsWithNewline(t *testing.T) {
	got, err := jsonc.Encode(map[string]any{"size": "60"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(got) == 0 || got[len(got)-1] != '\n' {
		t.Errorf("Encode() = %q, want trailing newline", got)
	}

	back, err := jsonc.Decode(got)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if back["size"] != "60" {
		t.Errorf("Decode(Encode())[size] = %v, want 60", back["size"])
	}
}
