package umbra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format/json"
	"github.com/yacchi/umbra/source/bytes"
	"github.com/yacchi/umbra/umbratest"
)

func docWithSize(size string) []byte {
	return []byte(`{"settings": {"shape": "circle", "size": "` + size + `", "color": "#fff"}, "list": [{"pk": 8}]}`)
}

func saveData(t *testing.T, src *umbratest.MemorySource, data []byte) {
	t.Helper()
	err := src.Save(context.Background(), func([]byte) ([]byte, error) { return data, nil })
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStore(t)
	src := umbratest.NewMemorySource("live.json", docWithSize("1"))

	reloads := make(chan struct{}, 10)
	cfg := WatchConfig{OnReload: func() { reloads <- struct{}{} }}
	stop, err := s.Watch(context.Background(), src, nil, cfg)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	saveData(t, src, docWithSize("42"))
	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if got := s.Settings().Size; got != "42" {
		t.Errorf("Settings().Size = %q, want 42", got)
	}
	if got := s.NextID(); got != 9 {
		t.Errorf("NextID() = %d, want 9", got)
	}

	if err := stop(context.Background()); err != nil {
		t.Errorf("stop() error = %v", err)
	}
	if err := stop(context.Background()); err != nil {
		t.Errorf("second stop() error = %v", err)
	}
}

func TestWatch_InvalidDataKeepsState(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStore(t)
	before := s.ExportDocument()
	src := umbratest.NewMemorySource("live.json", docWithSize("1"))

	errs := make(chan error, 10)
	stop, err := s.Watch(context.Background(), src, json.NewCodec(), WatchConfig{
		OnError: func(err error) { errs <- err },
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop(context.Background())

	saveData(t, src, []byte(`{"settings": {"shape": "circle"}}`))

	select {
	case err := <-errs:
		var ie *ImportError
		if !errors.As(err, &ie) || ie.Name != "memory://live.json" {
			t.Errorf("OnError got %v, want *ImportError for memory://live.json", err)
		}
		if !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("OnError got %v, want ErrInvalidDocument", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for OnError")
	}

	if s.Settings() != *before.Settings || len(s.Layers()) != len(before.List) {
		t.Error("state changed after invalid reload")
	}
}

func TestWatch_Debounce(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStore(t)
	src := umbratest.NewMemorySource("live.json", docWithSize("1"))

	var replaced atomic.Int32
	s.Subscribe(func(e Event) {
		if e.Kind == EventReplaced {
			replaced.Add(1)
		}
	})

	stop, err := s.Watch(context.Background(), src, nil, WatchConfig{DebounceDelay: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop(context.Background())

	saveData(t, src, docWithSize("2"))
	waitFor(t, "size 2", func() bool { return s.Settings().Size == "2" })

	if n := replaced.Load(); n != 1 {
		t.Errorf("replaced %d times, want 1", n)
	}
}

func TestWatch_UnknownFormat(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Watch(context.Background(), umbratest.NewMemorySource("live.txt", nil), nil, DefaultWatchConfig())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Watch() error = %v, want ErrUnknownFormat", err)
	}
}

func TestWatch_NoopSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStore(t)
	var codec document.Codec = json.NewCodec()
	stop, err := s.Watch(context.Background(), bytes.FromString("{}", bytes.WithName("fixed.json")), codec, DefaultWatchConfig())
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := stop(context.Background()); err != nil {
		t.Errorf("stop() error = %v", err)
	}
}

func TestDefaultWatchConfig(t *testing.T) {
	cfg := DefaultWatchConfig()
	if cfg.DebounceDelay != 100*time.Millisecond {
		t.Errorf("DebounceDelay = %v, want 100ms", cfg.DebounceDelay)
	}
	if len(cfg.WatcherOpts) == 0 {
		t.Error("WatcherOpts is empty")
	}
}
