package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacchi/umbra"
	"github.com/yacchi/umbra/watcher"
)

// stopTimeout bounds how long the watch command waits for the watcher to
// shut down.
const stopTimeout = 5 * time.Second

func newWatchCommand(a *app) *cobra.Command {
	var selector string

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Print the CSS of a document every time it changes",
		Long: `Print the CSS of a document, then again every time it changes.

Local files are watched with filesystem notifications; s3:// objects are
polled at watch.poll_interval. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.watch(ctx, args[0], selector, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&selector, "rule", "", "wrap the declarations in a rule for this selector")
	return cmd
}

func (a *app) watch(ctx context.Context, path, selector string, out, errOut io.Writer) error {
	if path == stdio {
		return fmt.Errorf("cannot watch stdin")
	}
	src, err := a.target(path)
	if err != nil {
		return err
	}
	store, err := a.load(ctx, path, nil)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	emit := func(w io.Writer, s string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = io.WriteString(w, s)
	}

	emit(out, renderCSS(store, selector))
	unsubscribe := store.CSS().Subscribe(func(string) {
		emit(out, renderCSS(store, selector))
	})
	defer unsubscribe()

	cfg := umbra.DefaultWatchConfig()
	cfg.DebounceDelay = a.cfg.Watch.Debounce
	if a.cfg.Watch.PollInterval > 0 {
		cfg.WatcherOpts = []watcher.WatchConfigOption{watcher.WithPollInterval(a.cfg.Watch.PollInterval)}
	}
	cfg.OnError = func(err error) {
		emit(errOut, fmt.Sprintf("error: %v\n", err))
	}

	stop, err := store.Watch(ctx, src, nil, cfg)
	if err != nil {
		return err
	}
	a.logger.Info("watching", zap.String("path", path))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return stop(stopCtx)
}
