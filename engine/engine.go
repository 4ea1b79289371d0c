package engine

import "errors"

var (
	ErrNotFound = errors.New("engine: key not found")
	ErrClosed   = errors.New("engine: closed")
	ErrNotStore = errors.New("engine: not a store directory")
)

// OpKind is the kind of a buffered mutation.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one mutation in an atomic write.
type Op struct {
	Key   []byte
	Value []byte
	Kind  OpKind
}

// Engine is the storage engine behind a store. Implementations copy every
// returned slice; callers may retain and mutate them.
type Engine interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Set stores value under key.
	Set(key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Apply commits ops atomically: all become visible or none do.
	Apply(ops []Op) error

	// NewIterator returns an unpositioned iterator over the full key space.
	NewIterator() (Iterator, error)

	// Close releases the engine. Open iterators must be closed first.
	Close() error
}

// Iterator walks keys in ascending byte order.
type Iterator interface {
	First() bool
	SeekGE(key []byte) bool
	Next() bool
	Valid() bool

	// Key and Value return copies of the current entry.
	Key() []byte
	Value() ([]byte, error)

	// Error returns any accumulated iteration error.
	Error() error
	Close() error
}
