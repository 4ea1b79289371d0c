package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed    = errors.New("resource backend closed")
	ErrExhausted = errors.New("resource table exhausted")
)

// LocalBackend is an in-memory arena of slots addressed by generational
// handles. Released slots are reused through a free list; a slot whose
// generation counter is spent is retired for good.
type LocalBackend struct {
	entries  []entry
	freeList []int
	limit    int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value   any
	typeID  uint32
	gen     uint16
	valid   bool
	retired bool
}

// Option configures a LocalBackend.
type Option func(*LocalBackend)

// WithLimit caps the number of slots. Values outside (0, MaxSlots] are
// ignored.
func WithLimit(n int) Option {
	return func(b *LocalBackend) {
		if n > 0 && n <= MaxSlots {
			b.limit = n
		}
	}
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend(opts ...Option) *LocalBackend {
	b := &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]int, 0, 16),
		limit:    MaxSlots,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	var idx int
	if n := len(b.freeList); n > 0 {
		idx = b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
	} else {
		if len(b.entries) >= b.limit {
			return 0, ErrExhausted
		}
		b.entries = append(b.entries, entry{})
		idx = len(b.entries) - 1
	}

	e := &b.entries[idx]
	e.typeID = typeID
	e.value = value
	e.valid = true
	b.live++

	return makeHandle(idx, e.gen), nil
}

// lookup returns the live entry for handle. Callers hold b.mu.
func (b *LocalBackend) lookup(handle Handle) *entry {
	idx := handle.index()
	if idx < 0 || idx >= len(b.entries) {
		return nil
	}
	e := &b.entries[idx]
	if !e.valid || e.gen != handle.generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Drop removes a resource and returns (value, true) exactly once.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return b.release(handle.index(), e), true
}

// DropTyped removes a resource only if its type matches.
func (b *LocalBackend) DropTyped(handle Handle, typeID uint32) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.typeID != typeID {
		return nil, false
	}
	return b.release(handle.index(), e), true
}

func (b *LocalBackend) release(idx int, e *entry) any {
	value := e.value
	e.valid = false
	e.value = nil
	b.live--

	if e.gen == maxGeneration {
		e.retired = true
		return value
	}
	e.gen++
	b.freeList = append(b.freeList, idx)
	return value
}

// Close releases all resources.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return nil
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend) TypeID(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// Len returns the number of active resources.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Retired returns the number of slots taken out of rotation.
func (b *LocalBackend) Retired() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, e := range b.entries {
		if e.retired {
			n++
		}
	}
	return n
}

// Each iterates over all active resources in slot order. fn must not call
// back into the backend.
func (b *LocalBackend) Each(fn func(Handle, uint32, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(makeHandle(i, e.gen), e.typeID, e.value) {
				break
			}
		}
	}
}
