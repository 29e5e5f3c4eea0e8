package watcher

import (
	"context"
	"sync"
)

// SubscriptionHandler defines the interface for subscription-based change detection.
type SubscriptionHandler interface {
	// Subscribe starts receiving change notifications.
	// Returns a StopFunc to unsubscribe, or an error if subscription failed.
	Subscribe(ctx context.Context, notify NotifyFunc) (StopFunc, error)
}

// SubscriptionHandlerFunc is a function that implements SubscriptionHandler.
type SubscriptionHandlerFunc func(ctx context.Context, notify NotifyFunc) (StopFunc, error)

// Subscribe implements SubscriptionHandler.
func (f SubscriptionHandlerFunc) Subscribe(ctx context.Context, notify NotifyFunc) (StopFunc, error) {
	return f(ctx, notify)
}

// subscriptionWatcher implements Watcher using subscriptions.
type subscriptionWatcher struct {
	handler SubscriptionHandler
	fetch   FetchFunc

	results chan WatchResult
	stopCh  chan struct{}
	stopFn  StopFunc

	mu      sync.Mutex
	running bool

	// sendMu guards closing results against in-flight notifications.
	sendMu sync.RWMutex
	closed bool

	// lastMu guards last and seen, used to drop notifications with
	// unchanged data.
	lastMu sync.Mutex
	last   []byte
	seen   bool
}

// NewSubscription creates a subscription-based Watcher.
//
// fetch is used when the handler notifies with (nil, nil), meaning a change
// event was observed but data must be read separately. Data that compares
// equal to the previously delivered data is not emitted again.
func NewSubscription(handler SubscriptionHandler, fetch FetchFunc) Watcher {
	return &subscriptionWatcher{
		handler: handler,
		fetch:   fetch,
	}
}

// Type returns the watcher type identifier.
func (w *subscriptionWatcher) Type() WatcherType {
	return TypeSubscription
}

// Start begins the subscription.
func (w *subscriptionWatcher) Start(ctx context.Context, cfg WatchConfig) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.results = make(chan WatchResult)
	w.stopCh = make(chan struct{})
	w.sendMu.Lock()
	w.closed = false
	w.sendMu.Unlock()
	results, stopCh := w.results, w.stopCh
	w.mu.Unlock()

	cfg = cfg.withDefaults()

	notify := func(data []byte, err error) {
		if data == nil && err == nil {
			if w.fetch == nil {
				// Event-only notification without a fetcher; nothing to deliver.
				return
			}
			data, err = w.fetch(ctx)
		}
		if err == nil && !w.changed(data, cfg.CompareFunc) {
			return
		}

		w.sendMu.RLock()
		defer w.sendMu.RUnlock()
		if w.closed {
			return
		}
		select {
		case results <- WatchResult{Data: data, Error: err}:
		case <-ctx.Done():
		case <-stopCh:
		}
	}

	stop, err := w.handler.Subscribe(ctx, notify)
	if err != nil {
		w.mu.Lock()
		w.running = false
		close(w.stopCh)
		w.mu.Unlock()
		w.closeResults()
		return err
	}

	w.mu.Lock()
	w.stopFn = stop
	w.mu.Unlock()

	return nil
}

func (w *subscriptionWatcher) changed(data []byte, compare CompareFunc) bool {
	w.lastMu.Lock()
	defer w.lastMu.Unlock()
	if w.seen && !compare(w.last, data) {
		return false
	}
	w.seen = true
	w.last = data
	return true
}

func (w *subscriptionWatcher) closeResults() {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.results)
}

// Stop stops the subscription.
func (w *subscriptionWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false

	// Unblock in-flight notifications before taking sendMu.
	close(w.stopCh)
	stop := w.stopFn
	w.stopFn = nil
	w.mu.Unlock()

	var err error
	if stop != nil {
		err = stop(ctx)
	}

	w.closeResults()
	return err
}

// Results returns the channel receiving subscription results.
func (w *subscriptionWatcher) Results() <-chan WatchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}
