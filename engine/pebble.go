package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// PebbleEngine is an Engine backed by a pebble database.
type PebbleEngine struct {
	db     *pebble.DB
	wo     *pebble.WriteOptions
	path   string
	mu     sync.RWMutex
	closed bool
}

var _ Engine = (*PebbleEngine)(nil)

// Open opens or creates the store at path.
func Open(path string, opts *Options) (*PebbleEngine, error) {
	popts, cache := opts.pebbleOptions()
	if cache != nil {
		defer cache.Unref()
	}

	db, err := pebble.Open(path, popts)
	if err != nil {
		return nil, err
	}

	Logger().Debug("store opened",
		zap.String("path", path),
		zap.Stringer("compression", popts.Levels[0].Compression))

	return &PebbleEngine{db: db, wo: opts.writeOptions(), path: path}, nil
}

// Path returns the directory the engine was opened at.
func (p *PebbleEngine) Path() string {
	return p.path
}

// Get returns a copy of the value stored under key.
func (p *PebbleEngine) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Set stores value under key.
func (p *PebbleEngine) Set(key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	return p.db.Set(key, value, p.wo)
}

// Delete removes key.
func (p *PebbleEngine) Delete(key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	return p.db.Delete(key, p.wo)
}

// Apply commits ops as a single pebble batch.
func (p *PebbleEngine) Apply(ops []Op) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	b := p.db.NewBatch()
	defer b.Close()

	for i, op := range ops {
		var err error
		switch op.Kind {
		case OpPut:
			err = b.Set(op.Key, op.Value, nil)
		case OpDelete:
			err = b.Delete(op.Key, nil)
		default:
			err = fmt.Errorf("unknown op kind %d", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("batch op %d: %w", i, err)
		}
	}
	return b.Commit(p.wo)
}

// NewIterator returns an unpositioned iterator.
func (p *PebbleEngine) NewIterator() (Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	iter, err := p.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	return &pebbleIterator{iter: iter}, nil
}

// Close closes the database. Closing twice is a no-op.
func (p *PebbleEngine) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	err := p.db.Close()
	Logger().Debug("store closed", zap.String("path", p.path), zap.Error(err))
	return err
}

type pebbleIterator struct {
	iter   *pebble.Iterator
	closed bool
}

func (it *pebbleIterator) First() bool {
	return it.iter.First()
}

func (it *pebbleIterator) SeekGE(key []byte) bool {
	return it.iter.SeekGE(key)
}

func (it *pebbleIterator) Next() bool {
	return it.iter.Next()
}

func (it *pebbleIterator) Valid() bool {
	return it.iter.Valid()
}

func (it *pebbleIterator) Key() []byte {
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *pebbleIterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, errors.New("iterator not positioned")
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, err
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *pebbleIterator) Error() error {
	return it.iter.Error()
}

func (it *pebbleIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.iter.Close()
}
