package umbra

import "sync"

// listener wraps a callback function with a unique ID for reliable unsubscription.
type listener[T any] struct {
	id uint64
	fn func(T)
}

// update is a value waiting to be delivered, tagged with its change number.
type update[T any] struct {
	seq   uint64
	value T
}

// Cell is a reference-stable, read-only holder for a value derived by the
// store. The Cell pointer stays valid across state replacements; listeners
// fire only when a new value differs from the held one, and never see an
// older value after a newer one.
type Cell[T comparable] struct {
	mu        sync.Mutex
	value     T
	seq       uint64
	listeners []listener[T]
	nextID    uint64

	// pending holds updates queued while another goroutine delivers.
	pending    []update[T]
	delivering bool
	delivered  uint64
}

// newCell creates a Cell holding initial.
func newCell[T comparable](initial T) *Cell[T] {
	return &Cell[T]{value: initial, nextID: 1}
}

// Get returns the held value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// swap stores v without notifying. It returns the change number to pass to
// notify, and false if v equals the held value.
func (c *Cell[T]) swap(v T) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == v {
		return 0, false
	}
	c.value = v
	c.seq++
	return c.seq, true
}

// notify delivers the value stored by swap. Updates are delivered one at a
// time in change order; an update older than one already delivered is
// dropped. Listeners run outside the lock, so they may read the cell,
// unsubscribe or trigger further changes. A change triggered from a
// listener is delivered after that listener returns.
func (c *Cell[T]) notify(v T, seq uint64) {
	c.mu.Lock()
	c.pending = append(c.pending, update[T]{seq: seq, value: v})
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true

	for len(c.pending) > 0 {
		u := c.pending[0]
		c.pending = c.pending[1:]
		if u.seq <= c.delivered {
			continue
		}
		c.delivered = u.seq
		listeners := append([]listener[T](nil), c.listeners...)
		c.mu.Unlock()

		for _, l := range listeners {
			l.fn(u.value)
		}

		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

// Subscribe registers fn to be called with every new value.
// The returned function unsubscribes and is safe to call more than once.
//
// Example:
//
//	unsubscribe := store.CSS().Subscribe(func(css string) {
//	  preview.SetStyle(css)
//	})
//	defer unsubscribe()
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener[T]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}
