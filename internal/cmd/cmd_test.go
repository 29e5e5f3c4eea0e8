package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacchi/umbra"
	"github.com/yacchi/umbra/format/json"
	"github.com/yacchi/umbra/format/toml"
	"github.com/yacchi/umbra/format/yaml"
	"github.com/yacchi/umbra/internal/config"
	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/source/fs"
)

const twoLayerDoc = `{
  "settings": {"shape": "square", "size": "40", "color": "#fff"},
  "list": [
    {"pk": 1, "hoff": 1, "voff": 2, "blur": 3, "spread": 4, "color": "red"},
    {"pk": 4, "hoff": 5, "voff": 6, "blur": 7, "spread": 8, "color": "blue"}
  ]
}`

// isolate keeps the user's config and environment out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.PathEnv, "")
	for _, k := range []string{"UMBRA_FORMAT", "UMBRA_LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runContext(t, context.Background(), stdin, args...)
}

func runContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()
	isolate(t)

	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func loadFile(t *testing.T, path string) *umbra.Store {
	t.Helper()
	s, err := umbra.New()
	require.NoError(t, err)
	report, err := s.Import(context.Background(), fs.New(path))
	require.NoError(t, err)
	require.NotEmpty(t, report.Applied)
	return s
}

func TestCSS(t *testing.T) {
	seeded, err := umbra.New()
	require.NoError(t, err)

	t.Run("default state", func(t *testing.T) {
		out, _, err := run(t, "", "css")
		require.NoError(t, err)
		assert.Equal(t, seeded.CSSDeclaration()+"\n", out)
	})

	t.Run("rule", func(t *testing.T) {
		out, _, err := run(t, "", "css", "--rule", ".box")
		require.NoError(t, err)
		assert.Equal(t, seeded.Rule(".box"), out)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		out, _, err := run(t, "", "css", path)
		require.NoError(t, err)
		assert.Equal(t, loadFile(t, path).CSSDeclaration()+"\n", out)
		assert.Contains(t, out, "box-shadow: 1px 2px 3px 4px red,5px 6px 7px 8px blue")
	})

	t.Run("stdin with format", func(t *testing.T) {
		in := "settings:\n  shape: circle\n  size: \"10\"\n  color: red\nlist:\n  - pk: 1\n    hoff: 3\n    color: blue\n"
		out, _, err := run(t, in, "css", "--format", "yaml", "-")
		require.NoError(t, err)
		assert.Contains(t, out, "box-shadow: 3px 0px 0px 0px blue")
		assert.Contains(t, out, "border-radius: 100%")
	})

	t.Run("unknown extension uses default format", func(t *testing.T) {
		path := writeFile(t, "doc.txt", twoLayerDoc)
		_, _, err := run(t, "", "css", path)
		require.NoError(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := run(t, "", "css", filepath.Join(t.TempDir(), "missing.json"))
		require.ErrorIs(t, err, source.ErrNotExist)
	})

	t.Run("invalid document", func(t *testing.T) {
		path := writeFile(t, "doc.json", `{"settings": {}, "list": []}`)
		_, _, err := run(t, "", "css", path)
		require.ErrorIs(t, err, umbra.ErrInvalidDocument)
	})

	t.Run("unknown format flag", func(t *testing.T) {
		_, _, err := run(t, "", "css", "--format", "xml")
		require.ErrorContains(t, err, `unknown format "xml"`)
	})
}

func TestPreset(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		out, _, err := run(t, "", "preset")
		require.NoError(t, err)

		tree, err := json.Decode([]byte(out))
		require.NoError(t, err)
		doc, err := umbra.DecodeDocument(tree)
		require.NoError(t, err)
		assert.Equal(t, umbra.Preset(), doc)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "guybrush.yaml")
		_, _, err := run(t, "", "preset", "-o", path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		tree, err := yaml.Decode(data)
		require.NoError(t, err)
		doc, err := umbra.DecodeDocument(tree)
		require.NoError(t, err)
		assert.Equal(t, umbra.Preset(), doc)
	})
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(in, []byte(twoLayerDoc), 0o644))
	mid := filepath.Join(dir, "doc.yaml")

	_, _, err := run(t, "", "convert", in, mid)
	require.NoError(t, err)
	assert.Equal(t, loadFile(t, in).ExportDocument(), loadFile(t, mid).ExportDocument())

	out, _, err := run(t, "", "convert", "--format", "toml", mid, "-")
	require.NoError(t, err)
	tree, err := toml.Decode([]byte(out))
	require.NoError(t, err)
	doc, err := umbra.DecodeDocument(tree)
	require.NoError(t, err)
	assert.Equal(t, loadFile(t, in).ExportDocument(), doc)
}

func TestLayerCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		out, _, err := run(t, "", "layer", "list", path)
		require.NoError(t, err)
		assert.Equal(t, "1\t1px 2px 3px 4px red\n4\t5px 6px 7px 8px blue\n", out)
	})

	t.Run("add", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		out, _, err := run(t, "", "layer", "add", path)
		require.NoError(t, err)
		assert.Equal(t, "added layer 5\n", out)

		layers := loadFile(t, path).Layers()
		require.Len(t, layers, 3)
		assert.Equal(t, 5, layers[2].ID)
		assert.Equal(t, "#ff00ff", layers[2].Color)
	})

	t.Run("remove", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		out, _, err := run(t, "", "layer", "remove", "--id", "4", path)
		require.NoError(t, err)
		assert.Equal(t, "removed layer 4\n", out)

		layers := loadFile(t, path).Layers()
		require.Len(t, layers, 1)
		assert.Equal(t, 1, layers[0].ID)
	})

	t.Run("remove unknown id", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		_, _, err := run(t, "", "layer", "remove", "--id", "99", path)
		require.ErrorContains(t, err, "no layer with id 99")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, twoLayerDoc, string(data))
	})

	t.Run("remove last layer", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		_, _, err := run(t, "", "layer", "remove", "--id", "4", path)
		require.NoError(t, err)

		_, _, err = run(t, "", "layer", "remove", path)
		require.ErrorContains(t, err, "cannot remove the last layer")

		layers := loadFile(t, path).Layers()
		require.Len(t, layers, 1)
		assert.Equal(t, 1, layers[0].ID)
	})

	t.Run("set only given flags", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		_, _, err := run(t, "", "layer", "set", "--id", "4", "--blur", "0", "--hoff=-9", "--color", "green", path)
		require.NoError(t, err)

		layers := loadFile(t, path).Layers()
		require.Len(t, layers, 2)
		assert.Equal(t, umbra.Shadow{ID: 1, OffsetX: 1, OffsetY: 2, Blur: 3, Spread: 4, Color: "red"}, layers[0])
		assert.Equal(t, umbra.Shadow{ID: 4, OffsetX: -9, OffsetY: 6, Blur: 0, Spread: 8, Color: "green"}, layers[1])
	})

	t.Run("set defaults to first layer", func(t *testing.T) {
		path := writeFile(t, "doc.json", twoLayerDoc)
		_, _, err := run(t, "", "layer", "set", "--spread", "12", path)
		require.NoError(t, err)

		layers := loadFile(t, path).Layers()
		assert.Equal(t, 12, layers[0].Spread)
		assert.Equal(t, 8, layers[1].Spread)
	})

	t.Run("stdin cannot be edited", func(t *testing.T) {
		_, _, err := run(t, twoLayerDoc, "layer", "add", "-")
		require.ErrorContains(t, err, "cannot edit stdin")
	})
}

func TestSettingsCommand(t *testing.T) {
	path := writeFile(t, "doc.json", twoLayerDoc)

	_, _, err := run(t, "", "settings", "--shape", "circle", "--size", "80", path)
	require.NoError(t, err)
	assert.Equal(t, umbra.Settings{Shape: umbra.ShapeCircle, Size: "80", Color: "#fff"}, loadFile(t, path).Settings())

	_, _, err = run(t, "", "settings", "--shape", "hexagon", path)
	require.ErrorContains(t, err, `invalid shape "hexagon"`)
	assert.Equal(t, umbra.ShapeCircle, loadFile(t, path).Settings().Shape)
}

func TestConfigFile(t *testing.T) {
	cfg := writeFile(t, "umbra.yaml", "format: yaml\n")

	out, _, err := run(t, "", "preset", "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "settings:"), "output = %q", out)

	_, _, err = run(t, "", "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestVerboseLogging(t *testing.T) {
	path := writeFile(t, "doc.json", twoLayerDoc)

	_, errOut, err := run(t, "", "css", "--verbose", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, `"msg":"document loaded"`)

	_, errOut, err = run(t, "", "css", path)
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "umbra version dev\n", out)
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	isolate(t)
	path := writeFile(t, "doc.json", twoLayerDoc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out, errOut syncBuffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"watch", path})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "width: 40px")
	}, 5*time.Second, 10*time.Millisecond)

	// The watcher starts after the initial print; keep rewriting until a
	// change is observed.
	updated := strings.Replace(twoLayerDoc, `"size": "40"`, `"size": "55"`, 1)
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(updated), 0o644)
		return strings.Contains(out.String(), "width: 55px")
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_Stdin(t *testing.T) {
	_, _, err := run(t, "", "watch", "-")
	require.ErrorContains(t, err, "cannot watch stdin")
}
