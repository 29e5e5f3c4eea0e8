package watcher

import "context"

// Watcher watches for changes and notifies via a channel.
// Implementations include polling, subscription and noop watchers.
type Watcher interface {
	// Type returns the watcher type identifier (e.g., TypePolling, TypeSubscription, TypeNoop).
	Type() WatcherType

	// Start begins watching for changes.
	// Results are sent to the channel returned by Results().
	// Calling Start on a running watcher is a no-op.
	Start(ctx context.Context, cfg WatchConfig) error

	// Stop stops watching and releases resources.
	// After Stop returns, no more results will be sent and the results
	// channel is closed (or will be closed shortly by the worker goroutine).
	Stop(ctx context.Context) error

	// Results returns a channel that receives watch results.
	// Returns nil if Start has not been called.
	Results() <-chan WatchResult
}
