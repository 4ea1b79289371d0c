package resource

import (
	"sync"
)

// UnifiedTable implements the Table interface using a LocalBackend for storage.
//
// Remove hands ownership back to the caller without invoking Dropper; only
// Clear and Close destroy values that are still registered.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new unified table with a LocalBackend.
func NewTable(opts ...Option) *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(opts...),
	}
}

// Insert adds a value and returns its handle.
func (t *UnifiedTable) Insert(typeID uint32, value any) (Handle, error) {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0, ErrClosed
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0, err
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return handle, nil
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *UnifiedTable) GetTyped(handle Handle, typeID uint32) (any, bool) {
	actualTypeID, ok := t.backend.TypeID(handle)
	if !ok || actualTypeID != typeID {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Remove drops a resource and returns (value, true) if found.
func (t *UnifiedTable) Remove(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}
	t.dropped(handle, typeID, value)
	return value, true
}

// RemoveTyped drops a resource only if it matches the expected type.
func (t *UnifiedTable) RemoveTyped(handle Handle, typeID uint32) (any, bool) {
	value, ok := t.backend.DropTyped(handle, typeID)
	if !ok {
		return nil, false
	}
	t.dropped(handle, typeID, value)
	return value, true
}

func (t *UnifiedTable) dropped(handle Handle, typeID uint32, value any) {
	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *UnifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active resources.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

// Each iterates over a snapshot of the active resources. fn may call back
// into the table.
func (t *UnifiedTable) Each(fn func(Handle, uint32, any) bool) {
	type item struct {
		value  any
		h      Handle
		typeID uint32
	}
	var items []item
	t.backend.Each(func(h Handle, typeID uint32, value any) bool {
		items = append(items, item{value: value, h: h, typeID: typeID})
		return true
	})
	for _, it := range items {
		if !fn(it.h, it.typeID, it.value) {
			return
		}
	}
}

// Clear drops all resources, calling Dropper on each value.
func (t *UnifiedTable) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, typeID uint32, value any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		if v, ok := t.Remove(h); ok {
			if d, ok := v.(Dropper); ok {
				d.Drop()
			}
		}
	}
}

// Close releases all resources and stops accepting operations.
func (t *UnifiedTable) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

// Backend returns the underlying backend.
func (t *UnifiedTable) Backend() *LocalBackend {
	return t.backend
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
