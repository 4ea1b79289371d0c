package store

import (
	"sync"

	"github.com/wippyai/kvhost/engine"
	"github.com/wippyai/kvhost/errors"
)

// Batch accumulates puts and deletes for one atomic DB.Write. It belongs to
// no store until written and stays usable afterwards.
type Batch struct {
	ops   []engine.Op
	mu    sync.Mutex
	freed bool
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put buffers a copy of key and value.
func (b *Batch) Put(key, value []byte) error {
	if err := checkKey(errors.PhaseBatch, key); err != nil {
		return err
	}
	if err := checkValue(errors.PhaseBatch, value); err != nil {
		return err
	}
	return b.add(engine.Op{Kind: engine.OpPut, Key: clone(key), Value: clone(value)})
}

// Delete buffers a deletion of key.
func (b *Batch) Delete(key []byte) error {
	if err := checkKey(errors.PhaseBatch, key); err != nil {
		return err
	}
	return b.add(engine.Op{Kind: engine.OpDelete, Key: clone(key)})
}

func (b *Batch) add(op engine.Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.freed {
		return errors.HandleClosed(errors.PhaseBatch, "Batch")
	}
	b.ops = append(b.ops, op)
	return nil
}

// Clear drops every buffered op.
func (b *Batch) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.freed {
		return errors.HandleClosed(errors.PhaseBatch, "Batch")
	}
	b.ops = nil
	return nil
}

// Len returns the number of buffered ops.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops)
}

// Free releases the buffered ops. Further use reports HandleClosed.
func (b *Batch) Free() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freed = true
	b.ops = nil
}

// Drop implements resource.Dropper.
func (b *Batch) Drop() {
	b.Free()
}

// snapshot returns the current ops. Ops are never mutated after append and
// Clear replaces the slice, so the result stays stable.
func (b *Batch) snapshot() ([]engine.Op, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.freed {
		return nil, errors.HandleClosed(errors.PhaseBatch, "Batch")
	}
	return b.ops[:len(b.ops):len(b.ops)], nil
}
