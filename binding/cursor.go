package binding

import (
	"github.com/wippyai/kvhost/errors"
	"github.com/wippyai/kvhost/store"
)

func (r *Registry) cursor(h Handle) (*store.Cursor, error) {
	e, ok := r.cursors.Get(h)
	if !ok {
		return nil, errors.HandleClosed(errors.PhaseIterate, "Iterator")
	}
	return e.cursor, nil
}

// CursorClose releases cursor h. Closing an absent or already released
// handle, including one released by its store's close, does nothing.
func (r *Registry) CursorClose(h Handle) error {
	e, ok := r.cursors.Remove(h)
	if !ok {
		return nil
	}
	return e.cursor.Close()
}

// SeekToFirst positions cursor h at the smallest key.
func (r *Registry) SeekToFirst(h Handle) error {
	c, err := r.cursor(h)
	if err != nil {
		return err
	}
	return c.SeekToFirst()
}

// Seek positions cursor h at the first key >= key.
func (r *Registry) Seek(h Handle, key []byte) error {
	c, err := r.cursor(h)
	if err != nil {
		return err
	}
	return c.Seek(key)
}

// Next advances cursor h.
func (r *Registry) Next(h Handle) error {
	c, err := r.cursor(h)
	if err != nil {
		return err
	}
	return c.Next()
}

// IsValid reports whether cursor h is positioned at an entry.
func (r *Registry) IsValid(h Handle) (bool, error) {
	c, err := r.cursor(h)
	if err != nil {
		return false, err
	}
	return c.IsValid()
}

// Key returns a copy of cursor h's current key.
func (r *Registry) Key(h Handle) ([]byte, error) {
	c, err := r.cursor(h)
	if err != nil {
		return nil, err
	}
	return c.Key()
}

// Value returns a copy of cursor h's current value.
func (r *Registry) Value(h Handle) ([]byte, error) {
	c, err := r.cursor(h)
	if err != nil {
		return nil, err
	}
	return c.Value()
}
