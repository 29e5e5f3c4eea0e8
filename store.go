package umbra

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yacchi/umbra/format"
)

// EventKind identifies what a command changed.
type EventKind string

const (
	EventLayerAdded   EventKind = "layer-added"
	EventLayerRemoved EventKind = "layer-removed"
	EventLayerUpdated EventKind = "layer-updated"
	EventSelection    EventKind = "selection"
	EventSettings     EventKind = "settings"
	EventReplaced     EventKind = "replaced"
)

// Event describes one applied command.
type Event struct {
	Kind EventKind

	// ID is the layer the event refers to. It is only meaningful for
	// layer-added, layer-removed, layer-updated and a non-empty selection.
	ID int
}

// subscriber wraps a callback function with a unique ID for reliable unsubscription.
type subscriber struct {
	id uint64
	fn func(Event)
}

// StoreOption is a functional option for configuring Store creation.
type StoreOption func(*storeOptions)

// storeOptions holds the options for New.
type storeOptions struct {
	logger   *zap.Logger
	preset   *Document
	document *Document
	registry *format.Registry
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithPreset replaces the bundled preset restored by LoadPreset.
func WithPreset(doc Document) StoreOption {
	return func(o *storeOptions) {
		d := doc.clone()
		o.preset = &d
	}
}

// WithDocument seeds the store from doc instead of the two example layers.
// The document goes through the same validation as ImportDocument.
func WithDocument(doc Document) StoreOption {
	return func(o *storeOptions) {
		d := doc.clone()
		o.document = &d
	}
}

// WithRegistry sets the codec registry used to classify imported blobs.
// Default is DefaultRegistry().
func WithRegistry(r *format.Registry) StoreOption {
	return func(o *storeOptions) {
		o.registry = r
	}
}

// Store holds the shadow layers, the selection and the settings.
//
// Commands run to completion under the store lock, so a Store may be shared
// between a UI goroutine and a watch reload. Subscribers are called after
// the lock is released, in subscription order.
type Store struct {
	// layers is the stacking order; index maps layer id to position
	layers []Shadow
	index  map[int]int

	// selected is valid only while hasSelected is true
	selected    int
	hasSelected bool

	settings Settings
	nextID   int

	preset   Document
	registry *format.Registry
	logger   *zap.Logger

	subscribers []subscriber
	nextSubID   uint64

	// css is the live CSS declaration
	css *Cell[string]

	// mu protects every field above except css, which has its own lock
	mu sync.RWMutex
}

// New creates a Store holding two example layers (ids 1 and 2, the first
// selected) and DefaultSettings, or the document given with WithDocument.
//
// Example:
//
//	store, err := umbra.New(umbra.WithLogger(logger))
//	if err != nil {
//	  return err
//	}
//	store.AddLayer()
//	fmt.Println(store.CSSDeclaration())
func New(opts ...StoreOption) (*Store, error) {
	options := storeOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	if options.registry == nil {
		options.registry = DefaultRegistry()
	}
	if options.preset == nil {
		p := Preset()
		options.preset = &p
	}
	if err := options.preset.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		preset:    *options.preset,
		registry:  options.registry,
		logger:    options.logger,
		nextSubID: 1,
	}

	if options.document != nil {
		if err := options.document.Validate(); err != nil {
			return nil, err
		}
		s.replaceLocked(*options.document)
	} else {
		seeds := DefaultSettings()
		s.replaceLocked(Document{Settings: &seeds, List: seedLayers()})
	}
	s.css = newCell(joinDeclarations(declarations(s.settings, s.layers)))

	return s, nil
}

// Subscribe registers a callback called after every applied command.
// Returns an unsubscribe function that is safe to call multiple times.
//
// Example:
//
//	unsubscribe := store.Subscribe(func(e umbra.Event) {
//	  if e.Kind == umbra.EventReplaced {
//	    redraw()
//	  }
//	})
//	defer unsubscribe()
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// commitLocked records the new derived CSS and returns a function that
// delivers e. The caller must invoke it after releasing the lock.
func (s *Store) commitLocked(e Event) func() {
	css := joinDeclarations(declarations(s.settings, s.layers))
	seq, changed := s.css.swap(css)
	subscribers := append([]subscriber(nil), s.subscribers...)

	return func() {
		if changed {
			s.css.notify(css, seq)
		}
		for _, sub := range subscribers {
			sub.fn(e)
		}
	}
}

// AddLayer appends a layer with the default parameters and the next id.
// The selection is unchanged.
func (s *Store) AddLayer() Shadow {
	s.mu.Lock()
	l := newLayer(s.nextID)
	s.nextID++
	s.index[l.ID] = len(s.layers)
	s.layers = append(s.layers, l)
	notify := s.commitLocked(Event{Kind: EventLayerAdded, ID: l.ID})
	s.mu.Unlock()

	notify()
	return l
}

// SetShape sets the shape of the preview element.
func (s *Store) SetShape(shape Shape) {
	s.updateSettings(func(st *Settings) { st.Shape = shape })
}

// SetSize sets the edge length, in pixels, of the preview element.
// The value is passed through unchecked.
func (s *Store) SetSize(size string) {
	s.updateSettings(func(st *Settings) { st.Size = size })
}

// SetColor sets the background color of the preview element.
func (s *Store) SetColor(color string) {
	s.updateSettings(func(st *Settings) { st.Color = color })
}

func (s *Store) updateSettings(fn func(*Settings)) {
	s.mu.Lock()
	fn(&s.settings)
	notify := s.commitLocked(Event{Kind: EventSettings})
	s.mu.Unlock()

	notify()
}

// SelectLayer selects the layer with the given id. If no layer has that id
// the selection is cleared and false is returned.
func (s *Store) SelectLayer(id int) bool {
	s.mu.Lock()
	_, found := s.index[id]
	s.selected, s.hasSelected = id, found
	e := Event{Kind: EventSelection}
	if found {
		e.ID = id
	}
	notify := s.commitLocked(e)
	s.mu.Unlock()

	notify()
	return found
}

// RemoveSelectedLayer removes the selected layer and clears the selection.
// With no selection it returns a *SelectionError and changes nothing.
func (s *Store) RemoveSelectedLayer() (Shadow, error) {
	const op = "RemoveSelectedLayer"

	s.mu.Lock()
	i, ok := s.selectedIndexLocked()
	if !ok {
		s.mu.Unlock()
		return Shadow{}, s.selectionError(op)
	}

	removed := s.layers[i]
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	delete(s.index, removed.ID)
	for j := i; j < len(s.layers); j++ {
		s.index[s.layers[j].ID] = j
	}
	s.hasSelected = false
	notify := s.commitLocked(Event{Kind: EventLayerRemoved, ID: removed.ID})
	s.mu.Unlock()

	notify()
	return removed, nil
}

// SetSelectedOffsetX sets the horizontal offset of the selected layer.
func (s *Store) SetSelectedOffsetX(v int) error {
	return s.updateSelected("SetSelectedOffsetX", func(l *Shadow) { l.OffsetX = v })
}

// SetSelectedOffsetY sets the vertical offset of the selected layer.
func (s *Store) SetSelectedOffsetY(v int) error {
	return s.updateSelected("SetSelectedOffsetY", func(l *Shadow) { l.OffsetY = v })
}

// SetSelectedBlur sets the blur radius of the selected layer.
func (s *Store) SetSelectedBlur(v int) error {
	return s.updateSelected("SetSelectedBlur", func(l *Shadow) { l.Blur = v })
}

// SetSelectedSpread sets the spread radius of the selected layer.
func (s *Store) SetSelectedSpread(v int) error {
	return s.updateSelected("SetSelectedSpread", func(l *Shadow) { l.Spread = v })
}

// SetSelectedColor sets the color of the selected layer.
func (s *Store) SetSelectedColor(color string) error {
	return s.updateSelected("SetSelectedColor", func(l *Shadow) { l.Color = color })
}

// updateSelected applies fn to the selected layer. With no selection it
// returns a *SelectionError and changes nothing.
func (s *Store) updateSelected(op string, fn func(*Shadow)) error {
	s.mu.Lock()
	i, ok := s.selectedIndexLocked()
	if !ok {
		s.mu.Unlock()
		return s.selectionError(op)
	}
	fn(&s.layers[i])
	notify := s.commitLocked(Event{Kind: EventLayerUpdated, ID: s.layers[i].ID})
	s.mu.Unlock()

	notify()
	return nil
}

func (s *Store) selectionError(op string) error {
	s.logger.Warn("selected-layer command ignored", zap.String("op", op), zap.Error(ErrNoSelection))
	return &SelectionError{Op: op}
}

func (s *Store) selectedIndexLocked() (int, bool) {
	if !s.hasSelected {
		return 0, false
	}
	i, ok := s.index[s.selected]
	return i, ok
}

// LoadPreset replaces the state with the preset, selects its first layer
// and sets the id counter above its highest id. The preset was validated by
// New, so this cannot fail.
func (s *Store) LoadPreset() {
	s.mu.RLock()
	preset := s.preset.clone()
	s.mu.RUnlock()

	s.replace(preset, "preset")
}

// ImportDocument replaces layers and settings with doc, selects its first
// layer and sets the id counter to one above its highest id.
// An invalid document is rejected with a *FormatError and the state is left
// untouched.
func (s *Store) ImportDocument(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	s.replace(doc.clone(), "document")
	return nil
}

// replace swaps in a validated document.
func (s *Store) replace(doc Document, origin string) {
	s.mu.Lock()
	s.replaceLocked(doc)
	count, next := len(s.layers), s.nextID
	notify := s.commitLocked(Event{Kind: EventReplaced})
	s.mu.Unlock()

	s.logger.Debug("state replaced",
		zap.String("origin", origin),
		zap.Int("layers", count),
		zap.Int("next_id", next))
	notify()
}

// replaceLocked installs doc, which must be valid and owned by the store.
func (s *Store) replaceLocked(doc Document) {
	s.layers = doc.List
	s.settings = *doc.Settings
	s.index = make(map[int]int, len(doc.List))
	for i, l := range doc.List {
		s.index[l.ID] = i
	}
	s.selected, s.hasSelected = doc.List[0].ID, true
	s.nextID = doc.maxID() + 1
}

// ExportDocument returns a copy of the state in interchange form, layers in
// stacking order.
func (s *Store) ExportDocument() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	return Document{
		Settings: &settings,
		List:     append([]Shadow{}, s.layers...),
	}
}

// CurrentLayer returns the selected layer, or false if none is selected.
func (s *Store) CurrentLayer() (Shadow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.selectedIndexLocked()
	if !ok {
		return Shadow{}, false
	}
	return s.layers[i], true
}

// Layers returns a copy of the layers in stacking order.
func (s *Store) Layers() []Shadow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Shadow{}, s.layers...)
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// NextID returns the id the next AddLayer will assign.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// Declarations returns the CSS declarations of the preview element:
// box-shadow, border-radius, width, height and background-color.
func (s *Store) Declarations() []Declaration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return declarations(s.settings, s.layers)
}

// CSSDeclaration returns the declarations joined inline, e.g.
//
//	box-shadow: 5px 5px 0px 0px #ff0000;border-radius: 0;width: 60px;height: 60px;background-color: #000000
//
// An empty layer list renders as "box-shadow: none".
func (s *Store) CSSDeclaration() string {
	return joinDeclarations(s.Declarations())
}

// Rule returns the declarations as a rule block for selector.
func (s *Store) Rule(selector string) string {
	return formatRule(selector, s.Declarations())
}

// CSS returns a Cell that always holds the current CSSDeclaration and
// notifies its subscribers when it changes.
func (s *Store) CSS() *Cell[string] {
	return s.css
}
