package store

import (
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/kvhost/engine"
	"github.com/wippyai/kvhost/errors"
)

// Options configures Open and Destroy.
type Options = engine.Options

// DB is an open store. It owns exactly one engine instance and every cursor
// created from it. All methods are safe for concurrent use.
type DB struct {
	eng     engine.Engine
	cursors map[*Cursor]struct{}
	path    string
	mu      sync.RWMutex
}

// Open opens the store at path, creating it when missing unless
// opts.ErrorIfMissing is set.
func Open(path string, opts *Options) (*DB, error) {
	if err := checkPath(errors.PhaseOpen, path); err != nil {
		return nil, err
	}
	eng, err := engine.Open(path, opts)
	if err != nil {
		return nil, errors.New(errors.PhaseOpen, errors.KindFailure).
			Detail("Failed to open").
			Path(path).
			Cause(err).
			Build()
	}
	db := New(eng)
	db.path = path
	return db, nil
}

// New wraps an already open engine. The DB takes ownership of eng.
func New(eng engine.Engine) *DB {
	return &DB{
		eng:     eng,
		cursors: make(map[*Cursor]struct{}),
	}
}

// Destroy removes all persisted data of the store at path. No DB may have
// the path open.
func Destroy(path string, opts *Options) error {
	if err := checkPath(errors.PhaseOpen, path); err != nil {
		return err
	}
	if err := engine.Destroy(path, opts); err != nil {
		if stderrors.Is(err, engine.ErrNotStore) {
			return errors.New(errors.PhaseOpen, errors.KindInvalidInput).
				Detail("not a store directory").
				Path(path).
				Cause(err).
				Build()
		}
		return errors.Failure(errors.PhaseOpen, "Failed to destroy", err)
	}
	return nil
}

// Path returns the path the store was opened at, or "" for injected engines.
func (d *DB) Path() string {
	return d.path
}

// Closed reports whether the DB has been closed or released.
func (d *DB) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.eng == nil
}

// Get returns a copy of the value stored under key.
func (d *DB) Get(key []byte) ([]byte, error) {
	if err := checkKey(errors.PhaseRead, key); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.eng == nil {
		return nil, errors.HandleClosed(errors.PhaseRead, "Database")
	}

	v, err := d.eng.Get(key)
	switch {
	case stderrors.Is(err, engine.ErrNotFound):
		return nil, errors.NotFound(errors.PhaseRead)
	case err != nil:
		return nil, errors.Failure(errors.PhaseRead, "Failed to get", err)
	}
	return v, nil
}

// Exists reports whether key is present.
func (d *DB) Exists(key []byte) (bool, error) {
	_, err := d.Get(key)
	if errors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put stores value under key. An empty non-nil value is allowed.
func (d *DB) Put(key, value []byte) error {
	if err := checkKey(errors.PhaseWrite, key); err != nil {
		return err
	}
	if err := checkValue(errors.PhaseWrite, value); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.eng == nil {
		return errors.HandleClosed(errors.PhaseWrite, "Database")
	}
	if err := d.eng.Set(key, value); err != nil {
		return errors.Failure(errors.PhaseWrite, "Failed to put", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (d *DB) Delete(key []byte) error {
	if err := checkKey(errors.PhaseWrite, key); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.eng == nil {
		return errors.HandleClosed(errors.PhaseWrite, "Database")
	}
	if err := d.eng.Delete(key); err != nil {
		return errors.Failure(errors.PhaseWrite, "Failed to delete", err)
	}
	return nil
}

// NewCursor returns an unpositioned cursor. The cursor is closed with the DB.
func (d *DB) NewCursor() (*Cursor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.eng == nil {
		return nil, errors.HandleClosed(errors.PhaseIterate, "Database")
	}
	it, err := d.eng.NewIterator()
	if err != nil {
		return nil, errors.Failure(errors.PhaseIterate, "Failed to create iterator", err)
	}
	c := &Cursor{db: d, it: it}
	d.cursors[c] = struct{}{}
	return c, nil
}

// Write applies every op buffered in b atomically. b is not consumed.
//
// A failed write releases the DB: its cursors and engine are closed and
// every later call reports HandleClosed.
func (d *DB) Write(b *Batch) error {
	if b == nil {
		return errors.InvalidInput(errors.PhaseBatch, "batch must not be nil")
	}
	ops, err := b.snapshot()
	if err != nil {
		return err
	}

	d.mu.RLock()
	if d.eng == nil {
		d.mu.RUnlock()
		return errors.HandleClosed(errors.PhaseBatch, "Database")
	}
	err = d.eng.Apply(ops)
	d.mu.RUnlock()

	if err == nil {
		return nil
	}

	Logger().Warn("batch write failed, releasing store",
		zap.String("path", d.path),
		zap.Int("ops", len(ops)),
		zap.Error(err))
	if cerr := d.Close(); cerr != nil {
		Logger().Debug("close after failed write", zap.Error(cerr))
	}
	return errors.Failure(errors.PhaseBatch, "Failed to write batch", err)
}

// Close closes every cursor of the DB, then the engine. Closing twice is a
// no-op.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.eng == nil {
		return nil
	}

	var first error
	for c := range d.cursors {
		c.mu.Lock()
		if err := c.closeLocked(); err != nil && first == nil {
			first = err
		}
		c.mu.Unlock()
	}
	d.cursors = make(map[*Cursor]struct{})

	if err := d.eng.Close(); err != nil && first == nil {
		first = err
	}
	d.eng = nil

	if first != nil {
		return errors.Failure(errors.PhaseOpen, "Failed to close", first)
	}
	return nil
}

// forget drops c from the DB's cursor set.
func (d *DB) forget(c *Cursor) {
	d.mu.Lock()
	delete(d.cursors, c)
	d.mu.Unlock()
}

// Cursors returns the number of open cursors.
func (d *DB) Cursors() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cursors)
}

// Drop implements resource.Dropper.
func (d *DB) Drop() {
	if err := d.Close(); err != nil {
		Logger().Debug("drop store", zap.String("path", d.path), zap.Error(err))
	}
}
