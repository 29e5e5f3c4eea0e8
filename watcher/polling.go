package watcher

import (
	"context"
	"sync"
	"time"
)

// PollHandler defines the interface for polling-based change detection.
type PollHandler interface {
	// Poll fetches the latest data from the source.
	// The watcher uses CompareFunc to detect changes.
	Poll(ctx context.Context) (data []byte, err error)
}

// PollHandlerFunc is a function that implements PollHandler.
type PollHandlerFunc func(ctx context.Context) (data []byte, err error)

// Poll implements PollHandler.
func (f PollHandlerFunc) Poll(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// pollingWatcher implements Watcher using polling.
type pollingWatcher struct {
	handler PollHandler

	results chan WatchResult
	stopCh  chan struct{}

	mu      sync.Mutex
	running bool
}

// NewPolling creates a new polling-based Watcher.
// The handler's Poll method is called once immediately and then at each
// interval. A result is emitted on the first successful poll, on every
// change detected by CompareFunc and on every error.
func NewPolling(handler PollHandler) Watcher {
	return &pollingWatcher{
		handler: handler,
	}
}

// Type returns the watcher type identifier.
func (w *pollingWatcher) Type() WatcherType {
	return TypePolling
}

// Start begins polling at the configured interval.
func (w *pollingWatcher) Start(ctx context.Context, cfg WatchConfig) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.results = make(chan WatchResult)
	w.stopCh = make(chan struct{})
	results, stopCh := w.results, w.stopCh
	w.mu.Unlock()

	cfg = cfg.withDefaults()

	go func() {
		defer close(results)

		var last []byte
		seen := false
		for {
			startTime := time.Now()

			data, err := w.handler.Poll(ctx)
			var result *WatchResult
			switch {
			case err != nil:
				result = &WatchResult{Error: err}
			case data == nil:
				// Handler reported "not modified".
			case !seen || cfg.CompareFunc(last, data):
				seen = true
				last = data
				result = &WatchResult{Data: data}
			}

			if result != nil {
				select {
				case results <- *result:
				case <-ctx.Done():
					return
				case <-stopCh:
					return
				}
			}

			// Account for processing time
			waitTime := cfg.PollInterval - time.Since(startTime)
			if waitTime <= 0 {
				continue
			}

			timer := time.NewTimer(waitTime)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			case <-stopCh:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop stops polling.
func (w *pollingWatcher) Stop(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	return nil
}

// Results returns the channel receiving poll results.
func (w *pollingWatcher) Results() <-chan WatchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}
