package store

import (
	"sync"

	"github.com/wippyai/kvhost/engine"
	"github.com/wippyai/kvhost/errors"
)

// State is the position state of a Cursor.
type State uint8

const (
	Unpositioned State = iota
	Valid
	Exhausted
	Closed
)

func (s State) String() string {
	switch s {
	case Unpositioned:
		return "unpositioned"
	case Valid:
		return "valid"
	case Exhausted:
		return "exhausted"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cursor is a position in its DB's key order. Key and Value are only legal
// while the cursor is Valid. A Cursor must not be used from more than one
// goroutine at a time.
type Cursor struct {
	db    *DB
	it    engine.Iterator
	mu    sync.Mutex
	state State
}

// State returns the cursor's current state.
func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SeekToFirst positions the cursor at the smallest key.
func (c *Cursor) SeekToFirst() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return errors.HandleClosed(errors.PhaseIterate, "Iterator")
	}
	return c.settle(c.it.First())
}

// Seek positions the cursor at the first key >= key. An empty key seeks to
// the first entry.
func (c *Cursor) Seek(key []byte) error {
	if key == nil {
		return errors.InvalidInput(errors.PhaseIterate, "key must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return errors.HandleClosed(errors.PhaseIterate, "Iterator")
	}
	return c.settle(c.it.SeekGE(key))
}

// Next advances to the following key. It fails with InvalidCursor unless
// the cursor is Valid.
func (c *Cursor) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Closed:
		return errors.HandleClosed(errors.PhaseIterate, "Iterator")
	case Valid:
		return c.settle(c.it.Next())
	default:
		return errors.InvalidCursor()
	}
}

// IsValid reports whether the cursor is positioned at an entry.
func (c *Cursor) IsValid() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return false, errors.HandleClosed(errors.PhaseIterate, "Iterator")
	}
	return c.state == Valid, nil
}

// Key returns a copy of the current key.
func (c *Cursor) Key() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkValid(); err != nil {
		return nil, err
	}
	return c.it.Key(), nil
}

// Value returns a copy of the current value.
func (c *Cursor) Value() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkValid(); err != nil {
		return nil, err
	}
	v, err := c.it.Value()
	if err != nil {
		return nil, errors.Failure(errors.PhaseIterate, "Failed to read value", err)
	}
	return v, nil
}

// Close releases the engine iterator. Closing twice is a no-op.
func (c *Cursor) Close() error {
	c.db.forget(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Cursor) checkValid() error {
	switch c.state {
	case Closed:
		return errors.HandleClosed(errors.PhaseIterate, "Iterator")
	case Valid:
		return nil
	default:
		return errors.InvalidCursor()
	}
}

// settle moves to Valid or Exhausted after a positioning call. An iterator
// error leaves the cursor Exhausted.
func (c *Cursor) settle(ok bool) error {
	if ok {
		c.state = Valid
		return nil
	}
	c.state = Exhausted
	if err := c.it.Error(); err != nil {
		return errors.Failure(errors.PhaseIterate, "Iteration failed", err)
	}
	return nil
}

func (c *Cursor) closeLocked() error {
	if c.state == Closed {
		return nil
	}
	c.state = Closed
	if err := c.it.Close(); err != nil {
		return errors.Failure(errors.PhaseIterate, "Failed to close iterator", err)
	}
	return nil
}

// Drop implements resource.Dropper.
func (c *Cursor) Drop() {
	_ = c.Close()
}
