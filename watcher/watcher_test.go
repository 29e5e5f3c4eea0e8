package watcher_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yacchi/umbra/watcher"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitTimeout = 2 * time.Second

func receive(t *testing.T, ch <-chan watcher.WatchResult) watcher.WatchResult {
	t.Helper()
	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatal("results channel closed unexpectedly")
		}
		return r
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for watch result")
	}
	return watcher.WatchResult{}
}

func expectNone(t *testing.T, ch <-chan watcher.WatchResult, d time.Duration) {
	t.Helper()
	select {
	case r, ok := <-ch:
		if ok {
			t.Fatalf("unexpected result: data=%q err=%v", r.Data, r.Error)
		}
	case <-time.After(d):
	}
}

func expectClosed(t *testing.T, ch <-chan watcher.WatchResult) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("results channel was not closed")
		}
	}
}

func TestDefaultCompareFunc(t *testing.T) {
	tests := []struct {
		name     string
		old      []byte
		new      []byte
		expected bool
	}{
		{"different", []byte("old"), []byte("new"), true},
		{"same", []byte("same"), []byte("same"), false},
		{"empty both", []byte{}, []byte{}, false},
		{"nil old", nil, []byte("new"), true},
		{"nil both", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := watcher.DefaultCompareFunc(tt.old, tt.new); got != tt.expected {
				t.Errorf("DefaultCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, got, tt.expected)
			}
		})
	}
}

func TestHashCompareFunc(t *testing.T) {
	if watcher.HashCompareFunc([]byte("a"), []byte("a")) {
		t.Error("HashCompareFunc(a, a) = true, want false")
	}
	if !watcher.HashCompareFunc([]byte("a"), []byte("b")) {
		t.Error("HashCompareFunc(a, b) = false, want true")
	}
}

func TestNewWatchConfig(t *testing.T) {
	cfg := watcher.NewWatchConfig()
	if cfg.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, watcher.DefaultPollInterval)
	}
	if cfg.CompareFunc == nil {
		t.Error("CompareFunc = nil, want default")
	}

	calls := 0
	cfg = watcher.NewWatchConfig(
		watcher.WithPollInterval(time.Second),
		watcher.WithCompareFunc(func(old, new []byte) bool { calls++; return true }),
	)
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	cfg.CompareFunc(nil, nil)
	if calls != 1 {
		t.Errorf("custom CompareFunc called %d times, want 1", calls)
	}
}

func TestPollingWatcher(t *testing.T) {
	t.Run("emits first data and changes only", func(t *testing.T) {
		var mu sync.Mutex
		data := []byte("v1")
		w := watcher.NewPolling(watcher.PollHandlerFunc(func(ctx context.Context) ([]byte, error) {
			mu.Lock()
			defer mu.Unlock()
			return data, nil
		}))
		if w.Type() != watcher.TypePolling {
			t.Errorf("Type() = %v, want %v", w.Type(), watcher.TypePolling)
		}

		ctx := context.Background()
		if err := w.Start(ctx, watcher.NewWatchConfig(watcher.WithPollInterval(10*time.Millisecond))); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		if r := receive(t, w.Results()); string(r.Data) != "v1" {
			t.Errorf("first result = %q, want v1", r.Data)
		}
		expectNone(t, w.Results(), 50*time.Millisecond)

		mu.Lock()
		data = []byte("v2")
		mu.Unlock()
		if r := receive(t, w.Results()); string(r.Data) != "v2" {
			t.Errorf("second result = %q, want v2", r.Data)
		}

		if err := w.Stop(ctx); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		expectClosed(t, w.Results())
	})

	t.Run("reports errors and skips not-modified", func(t *testing.T) {
		var n atomic.Int32
		boom := errors.New("boom")
		w := watcher.NewPolling(watcher.PollHandlerFunc(func(ctx context.Context) ([]byte, error) {
			switch n.Add(1) {
			case 1:
				return nil, boom
			case 2:
				return nil, nil
			default:
				return []byte("ok"), nil
			}
		}))

		ctx := context.Background()
		if err := w.Start(ctx, watcher.NewWatchConfig(watcher.WithPollInterval(5*time.Millisecond))); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if r := receive(t, w.Results()); !errors.Is(r.Error, boom) {
			t.Errorf("first result error = %v, want %v", r.Error, boom)
		}
		if r := receive(t, w.Results()); string(r.Data) != "ok" {
			t.Errorf("second result = %q, want ok", r.Data)
		}
		_ = w.Stop(ctx)
		expectClosed(t, w.Results())
	})

	t.Run("context cancel closes results", func(t *testing.T) {
		w := watcher.NewPolling(watcher.PollHandlerFunc(func(ctx context.Context) ([]byte, error) {
			return []byte("x"), nil
		}))
		ctx, cancel := context.WithCancel(context.Background())
		if err := w.Start(ctx, watcher.WatchConfig{}); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		receive(t, w.Results())
		cancel()
		expectClosed(t, w.Results())
		_ = w.Stop(context.Background())
	})

	t.Run("double start is a no-op", func(t *testing.T) {
		w := watcher.NewPolling(watcher.PollHandlerFunc(func(ctx context.Context) ([]byte, error) {
			return []byte("x"), nil
		}))
		ctx := context.Background()
		if err := w.Start(ctx, watcher.NewWatchConfig()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		first := w.Results()
		if err := w.Start(ctx, watcher.NewWatchConfig()); err != nil {
			t.Fatalf("second Start() error = %v", err)
		}
		if w.Results() != first {
			t.Error("second Start() replaced the results channel")
		}
		_ = w.Stop(ctx)
		expectClosed(t, first)
	})
}

// fakeSubscription lets tests fire notifications by hand.
type fakeSubscription struct {
	mu      sync.Mutex
	notify  watcher.NotifyFunc
	stopped bool
	err     error
}

func (f *fakeSubscription) Subscribe(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.notify = notify
	f.mu.Unlock()
	return func(ctx context.Context) error {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		return nil
	}, nil
}

func (f *fakeSubscription) fire(data []byte, err error) {
	f.mu.Lock()
	n := f.notify
	f.mu.Unlock()
	go n(data, err)
}

func TestSubscriptionWatcher(t *testing.T) {
	t.Run("push, fetch and duplicate suppression", func(t *testing.T) {
		sub := &fakeSubscription{}
		var fetched atomic.Int32
		w := watcher.NewSubscription(sub, func(ctx context.Context) ([]byte, error) {
			fetched.Add(1)
			return []byte("fetched"), nil
		})
		if w.Type() != watcher.TypeSubscription {
			t.Errorf("Type() = %v, want %v", w.Type(), watcher.TypeSubscription)
		}

		ctx := context.Background()
		if err := w.Start(ctx, watcher.NewWatchConfig()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		sub.fire([]byte("pushed"), nil)
		if r := receive(t, w.Results()); string(r.Data) != "pushed" {
			t.Errorf("push result = %q, want pushed", r.Data)
		}

		sub.fire(nil, nil)
		if r := receive(t, w.Results()); string(r.Data) != "fetched" {
			t.Errorf("event result = %q, want fetched", r.Data)
		}

		sub.fire(nil, nil)
		expectNone(t, w.Results(), 50*time.Millisecond)
		if got := fetched.Load(); got != 2 {
			t.Errorf("fetch called %d times, want 2", got)
		}

		if err := w.Stop(ctx); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		expectClosed(t, w.Results())

		sub.mu.Lock()
		stopped := sub.stopped
		sub.mu.Unlock()
		if !stopped {
			t.Error("handler stop function was not called")
		}
	})

	t.Run("error notification", func(t *testing.T) {
		sub := &fakeSubscription{}
		w := watcher.NewSubscription(sub, nil)
		ctx := context.Background()
		if err := w.Start(ctx, watcher.NewWatchConfig()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		boom := errors.New("boom")
		sub.fire(nil, boom)
		if r := receive(t, w.Results()); !errors.Is(r.Error, boom) {
			t.Errorf("result error = %v, want %v", r.Error, boom)
		}
		_ = w.Stop(ctx)
	})

	t.Run("subscribe error", func(t *testing.T) {
		boom := errors.New("cannot subscribe")
		w := watcher.NewSubscription(&fakeSubscription{err: boom}, nil)
		if err := w.Start(context.Background(), watcher.NewWatchConfig()); !errors.Is(err, boom) {
			t.Fatalf("Start() error = %v, want %v", err, boom)
		}
		expectClosed(t, w.Results())
		if err := w.Stop(context.Background()); err != nil {
			t.Errorf("Stop() after failed Start error = %v", err)
		}
	})

	t.Run("notification after stop is dropped", func(t *testing.T) {
		sub := &fakeSubscription{}
		w := watcher.NewSubscription(sub, nil)
		ctx := context.Background()
		if err := w.Start(ctx, watcher.NewWatchConfig()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		_ = w.Stop(ctx)

		sub.mu.Lock()
		notify := sub.notify
		sub.mu.Unlock()
		notify([]byte("late"), nil) // must not panic or block
		expectClosed(t, w.Results())
	})
}

func TestNoopWatcher(t *testing.T) {
	w := watcher.NewNoop()
	if w.Type() != watcher.TypeNoop {
		t.Errorf("Type() = %v, want %v", w.Type(), watcher.TypeNoop)
	}
	if w.Results() != nil {
		t.Error("Results() before Start should be nil")
	}

	ctx := context.Background()
	if err := w.Start(ctx, watcher.NewWatchConfig()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	expectNone(t, w.Results(), 20*time.Millisecond)

	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	expectClosed(t, w.Results())

	if err := w.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
