package binding

import (
	"github.com/wippyai/kvhost/errors"
	"github.com/wippyai/kvhost/store"
)

func (r *Registry) batch(h Handle) (*store.Batch, error) {
	b, ok := r.batches.Get(h)
	if !ok {
		return nil, errors.HandleClosed(errors.PhaseBatch, "Batch")
	}
	return b, nil
}

// BatchCreate returns the handle of a new empty batch.
func (r *Registry) BatchCreate() (Handle, error) {
	h, err := r.batches.Insert(store.NewBatch())
	if err != nil {
		return 0, insertError(err)
	}
	return h, nil
}

// BatchPut buffers a put in batch h.
func (r *Registry) BatchPut(h Handle, key, value []byte) error {
	b, err := r.batch(h)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

// BatchDelete buffers a delete in batch h.
func (r *Registry) BatchDelete(h Handle, key []byte) error {
	b, err := r.batch(h)
	if err != nil {
		return err
	}
	return b.Delete(key)
}

// BatchClear drops every op buffered in batch h.
func (r *Registry) BatchClear(h Handle) error {
	b, err := r.batch(h)
	if err != nil {
		return err
	}
	return b.Clear()
}

// BatchFree releases batch h. Freeing an absent or already released handle
// does nothing.
func (r *Registry) BatchFree(h Handle) error {
	b, ok := r.batches.Remove(h)
	if !ok {
		return nil
	}
	b.Free()
	return nil
}
