package binding

import (
	"go.uber.org/zap"

	"github.com/wippyai/kvhost/errors"
	"github.com/wippyai/kvhost/store"
)

func (r *Registry) store(h Handle, phase errors.Phase) (*store.DB, error) {
	db, ok := r.stores.Get(h)
	if !ok {
		return nil, errors.HandleClosed(phase, "Database")
	}
	return db, nil
}

// StoreOpen opens the store at path and returns its handle.
func (r *Registry) StoreOpen(path string) (Handle, error) {
	db, err := store.Open(path, r.opts)
	if err != nil {
		return 0, err
	}
	h, err := r.stores.Insert(db)
	if err != nil {
		_ = db.Close()
		return 0, insertError(err)
	}
	r.log.Debug("store opened", zap.Uint32("handle", uint32(h)), zap.String("path", path))
	return h, nil
}

// Attach registers an already open DB and returns its handle. The registry
// takes ownership of db.
func (r *Registry) Attach(db *store.DB) (Handle, error) {
	h, err := r.stores.Insert(db)
	if err != nil {
		return 0, insertError(err)
	}
	return h, nil
}

// StoreClose releases h, its cursor handles and the engine behind it.
// Closing an absent or already released handle does nothing.
func (r *Registry) StoreClose(h Handle) error {
	db, ok := r.stores.Remove(h)
	if !ok {
		return nil
	}
	r.releaseCursors(h)
	return db.Close()
}

// releaseCursors drops the cursor handles owned by store handle h. The
// cursors themselves are closed by their store.
func (r *Registry) releaseCursors(h Handle) {
	r.cursors.Each(func(ch Handle, e *cursorEntry) bool {
		if e.owner == h {
			r.cursors.Remove(ch)
		}
		return true
	})
}

// Get returns a copy of the value under key.
func (r *Registry) Get(h Handle, key []byte) ([]byte, error) {
	db, err := r.store(h, errors.PhaseRead)
	if err != nil {
		return nil, err
	}
	return db.Get(key)
}

// Exists reports whether key is present.
func (r *Registry) Exists(h Handle, key []byte) (bool, error) {
	db, err := r.store(h, errors.PhaseRead)
	if err != nil {
		return false, err
	}
	return db.Exists(key)
}

// Put stores value under key.
func (r *Registry) Put(h Handle, key, value []byte) error {
	db, err := r.store(h, errors.PhaseWrite)
	if err != nil {
		return err
	}
	return db.Put(key, value)
}

// Delete removes key.
func (r *Registry) Delete(h Handle, key []byte) error {
	db, err := r.store(h, errors.PhaseWrite)
	if err != nil {
		return err
	}
	return db.Delete(key)
}

// NewCursor creates an unpositioned cursor over store h.
func (r *Registry) NewCursor(h Handle) (Handle, error) {
	db, err := r.store(h, errors.PhaseIterate)
	if err != nil {
		return 0, err
	}
	c, err := db.NewCursor()
	if err != nil {
		return 0, err
	}
	ch, err := r.cursors.Insert(&cursorEntry{cursor: c, owner: h})
	if err != nil {
		_ = c.Close()
		return 0, insertError(err)
	}
	return ch, nil
}

// Write applies batch bh to store h atomically. When the write fails the
// store is released and h becomes absent.
func (r *Registry) Write(h, bh Handle) error {
	db, err := r.store(h, errors.PhaseBatch)
	if err != nil {
		return err
	}
	b, err := r.batch(bh)
	if err != nil {
		return err
	}

	err = db.Write(b)
	if err != nil && errors.KindOf(err) == errors.KindFailure && db.Closed() {
		if _, ok := r.stores.Remove(h); ok {
			r.releaseCursors(h)
			r.log.Warn("store released after failed write",
				zap.Uint32("handle", uint32(h)),
				zap.Error(err))
		}
	}
	return err
}

// Destroy removes all data of the store at path. No handle may have it open.
func (r *Registry) Destroy(path string) error {
	return store.Destroy(path, r.opts)
}
