package umbratest

import (
	"context"
	"sync"

	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/types"
	"github.com/yacchi/umbra/watcher"
)

// MemorySource is an in-memory source that supports Load and Save and
// reports every Save to its watchers. It is useful for exercising import,
// export and reload paths without touching the file system.
type MemorySource struct {
	mu        sync.Mutex
	name      string
	mediaType string
	data      []byte
	exists    bool
	loadErr   error
	notify    map[int]watcher.NotifyFunc
	nextSub   int
}

// Ensure MemorySource implements source.WatchableSource.
var _ source.WatchableSource = (*MemorySource)(nil)

// NewMemorySource creates a MemorySource holding data under name.
// The name drives extension-based classification, e.g. "umbra.yaml".
func NewMemorySource(name string, data []byte) *MemorySource {
	return &MemorySource{
		name:   name,
		data:   append([]byte(nil), data...),
		exists: data != nil,
		notify: make(map[int]watcher.NotifyFunc),
	}
}

// SetMediaType declares the media type reported through FillDetails.
func (s *MemorySource) SetMediaType(mediaType string) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaType = mediaType
	return s
}

// FailLoad makes subsequent Load calls return err. Pass nil to clear.
func (s *MemorySource) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// Type returns the source type identifier.
func (s *MemorySource) Type() source.SourceType {
	return "memory"
}

// FillDetails implements types.DetailsFiller.
func (s *MemorySource) FillDetails(d *types.Details) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Name = s.name
	d.Path = "memory://" + s.name
	d.MediaType = s.mediaType
	d.Watcher = watcher.TypeSubscription
}

// Data returns a copy of the stored bytes.
func (s *MemorySource) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Load returns the stored bytes.
func (s *MemorySource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if !s.exists {
		return nil, source.NewNotExistError("memory://"+s.name, nil)
	}
	return append([]byte(nil), s.data...), nil
}

// Save applies updateFunc and stores the result. Watchers are notified
// asynchronously.
func (s *MemorySource) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	var current []byte
	if s.exists {
		current = append([]byte(nil), s.data...)
	}
	next, err := updateFunc(current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = append([]byte(nil), next...)
	s.exists = true
	subs := make([]watcher.NotifyFunc, 0, len(s.notify))
	for _, fn := range s.notify {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		go fn(nil, nil)
	}
	return nil
}

// CanSave returns true.
func (s *MemorySource) CanSave() bool {
	return true
}

// Subscribe implements watcher.SubscriptionHandler.
func (s *MemorySource) Subscribe(_ context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.notify[id] = notify
	s.mu.Unlock()

	return func(context.Context) error {
		s.mu.Lock()
		delete(s.notify, id)
		s.mu.Unlock()
		return nil
	}, nil
}

// Watch returns a subscription watcher that re-reads the source after
// every Save.
func (s *MemorySource) Watch() (watcher.Watcher, error) {
	return watcher.NewSubscription(watcher.SubscriptionHandlerFunc(s.Subscribe), s.Load), nil
}
