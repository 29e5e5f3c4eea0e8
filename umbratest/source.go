package umbratest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/watcher"
)

// SourceFactory creates a Source initialized with the given test data.
// The factory is called for each test case to ensure test isolation.
type SourceFactory func(data []byte) source.Source

// NotExistFactory creates a Source that points to a missing blob.
type NotExistFactory func() source.Source

// SourceTesterOption configures SourceTester behavior.
type SourceTesterOption func(*SourceTester)

// WithNotExistFactory enables the missing-blob check: Load on the created
// source must fail with an error matching source.ErrNotExist.
func WithNotExistFactory(factory NotExistFactory) SourceTesterOption {
	return func(st *SourceTester) {
		st.notExistFactory = factory
	}
}

// SourceTester verifies source.Source implementations.
type SourceTester struct {
	t               *testing.T
	factory         SourceFactory
	notExistFactory NotExistFactory
}

// NewSourceTester creates a SourceTester for the given SourceFactory.
func NewSourceTester(t *testing.T, factory SourceFactory, opts ...SourceTesterOption) *SourceTester {
	st := &SourceTester{
		t:       t,
		factory: factory,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// TestAll runs all standard compliance tests for Source implementations.
func (st *SourceTester) TestAll() {
	st.t.Run("Type", st.testType)
	st.t.Run("Load", st.testLoad)
	st.t.Run("CanSave", st.testCanSave)
	st.t.Run("Watch", st.testWatch)
	st.t.Run("NotExist", st.testNotExist)
}

const sampleData = `{"settings": {"shape": "square", "size": "60", "color": "#000000"}, "list": []}`

func (st *SourceTester) testType(t *testing.T) {
	s := st.factory([]byte(sampleData))
	require(t, s.Type() != "", "Type() returned empty string")
}

func (st *SourceTester) testLoad(t *testing.T) {
	s := st.factory([]byte(sampleData))

	data, err := s.Load(context.Background())
	requireNoError(t, err, "Load() error = %v", err)
	check(t, string(data) == sampleData, "Load() = %q, want %q", data, sampleData)
}

// testCanSave verifies CanSave() is consistent with Save() behavior.
func (st *SourceTester) testCanSave(t *testing.T) {
	s := st.factory([]byte(sampleData))

	const updated = `{"settings": {"shape": "circle"}, "list": []}`
	canSave := s.CanSave()
	err := s.Save(context.Background(), func(current []byte) ([]byte, error) {
		return []byte(updated), nil
	})

	if !canSave {
		check(t, errors.Is(err, source.ErrSaveNotSupported),
			"CanSave() returned false but Save() did not return ErrSaveNotSupported, got %v", err)
		return
	}

	requireNoError(t, err, "Save() error = %v", err)
	data, err := s.Load(context.Background())
	requireNoError(t, err, "Load() after Save() error = %v", err)
	check(t, string(data) == updated, "Load() after Save() = %q, want %q", data, updated)
}

func (st *SourceTester) testWatch(t *testing.T) {
	s := st.factory([]byte(sampleData))

	ws, ok := s.(source.WatchableSource)
	if !ok {
		t.Skip("Source does not implement WatchableSource")
	}

	w, err := ws.Watch()
	requireNoError(t, err, "Watch() error = %v", err)
	require(t, w != nil, "Watch() returned nil watcher")

	typ := w.Type()
	check(t, typ == watcher.TypePolling || typ == watcher.TypeSubscription || typ == watcher.TypeNoop,
		"Watcher.Type() returned unknown type: %q", typ)
	check(t, w.Results() == nil, "Results() should be nil before Start()")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := watcher.NewWatchConfig(watcher.WithPollInterval(50 * time.Millisecond))
	requireNoError(t, w.Start(ctx, cfg), "Start() returned error")
	require(t, w.Results() != nil, "Results() returned nil after Start()")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	requireNoError(t, w.Stop(stopCtx), "Stop() returned error")
}

func (st *SourceTester) testNotExist(t *testing.T) {
	if st.notExistFactory == nil {
		t.Skip("NotExistFactory not provided")
	}

	_, err := st.notExistFactory().Load(context.Background())
	require(t, err != nil, "Load() on missing blob should return error")
	check(t, errors.Is(err, source.ErrNotExist),
		"Load() error should match source.ErrNotExist, got: %v", err)
}
