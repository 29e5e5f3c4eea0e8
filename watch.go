package umbra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/watcher"
)

// WatchConfig configures Store.Watch.
type WatchConfig struct {
	// DebounceDelay is the delay to wait for additional changes before
	// reloading, so that a burst of writes is applied once.
	// Zero applies every change immediately. Default: 100ms
	DebounceDelay time.Duration

	// OnError is called with an *ImportError when the watched blob cannot be
	// read or decoded. The state is left untouched.
	// If nil, errors are only logged.
	OnError func(err error)

	// OnReload is called after the state has been replaced.
	// This is called in addition to any registered subscribers.
	OnReload func()

	// WatcherOpts are applied to the source's watcher.
	WatcherOpts []watcher.WatchConfigOption
}

// DefaultWatchConfig returns the default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: 100 * time.Millisecond,
		WatcherOpts: []watcher.WatchConfigOption{
			watcher.WithPollInterval(30 * time.Second),
		},
	}
}

// Watch re-imports src whenever its watcher reports new data.
// If codec is nil it is picked from the source's name or media type.
// Returns a stop function that stops the watcher and waits for the reload
// loop to exit; it is safe to call more than once.
//
// Example:
//
//	stop, err := store.Watch(ctx, fs.New("umbra.yaml"), nil, umbra.DefaultWatchConfig())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer stop(context.Background())
func (s *Store) Watch(ctx context.Context, src source.WatchableSource, codec document.Codec, cfg WatchConfig) (stop func(context.Context) error, err error) {
	d := source.Describe(src)
	name := displayName(d)
	if codec == nil {
		var ok bool
		if codec, ok = s.classify(d); !ok {
			return nil, fmt.Errorf("watch %s: %w", name, ErrUnknownFormat)
		}
	}

	w, err := src.Watch()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher for %s: %w", name, err)
	}

	watchCtx, watchCancel := context.WithCancel(ctx)
	if err := w.Start(watchCtx, watcher.NewWatchConfig(cfg.WatcherOpts...)); err != nil {
		watchCancel()
		return nil, fmt.Errorf("failed to start watcher for %s: %w", name, err)
	}
	s.logger.Debug("watch started", zap.String("source", name), zap.String("watcher", string(w.Type())))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.watchLoop(watchCtx, w.Results(), name, codec, cfg)
	}()

	var (
		once    sync.Once
		stopErr error
	)
	stop = func(stopCtx context.Context) error {
		once.Do(func() {
			watchCancel()
			stopErr = w.Stop(stopCtx)
			select {
			case <-done:
			case <-stopCtx.Done():
				if stopErr == nil {
					stopErr = stopCtx.Err()
				}
			}
			s.logger.Debug("watch stopped", zap.String("source", name))
		})
		return stopErr
	}
	return stop, nil
}

// watchLoop applies watcher results, debounced, until ctx is done or the
// results channel is closed.
func (s *Store) watchLoop(ctx context.Context, results <-chan watcher.WatchResult, name string, codec document.Codec, cfg WatchConfig) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending []byte
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case r, ok := <-results:
			if !ok {
				return
			}
			if r.Error != nil {
				s.watchError(cfg, &ImportError{Name: name, Err: r.Error})
				continue
			}
			if cfg.DebounceDelay <= 0 {
				s.reload(r.Data, name, codec, cfg)
				continue
			}
			pending = r.Data
			if timer == nil {
				timer = time.NewTimer(cfg.DebounceDelay)
			} else {
				timer.Reset(cfg.DebounceDelay)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			s.reload(pending, name, codec, cfg)
			pending = nil
		}
	}
}

func (s *Store) reload(data []byte, name string, codec document.Codec, cfg WatchConfig) {
	doc, err := decodeBlob(codec, data)
	if err != nil {
		s.watchError(cfg, &ImportError{Name: name, Err: err})
		return
	}
	s.replace(doc, name)
	if cfg.OnReload != nil {
		cfg.OnReload()
	}
}

func (s *Store) watchError(cfg WatchConfig, err error) {
	s.logger.Warn("watch reload failed", zap.Error(err))
	if cfg.OnError != nil {
		cfg.OnError(err)
	}
}
