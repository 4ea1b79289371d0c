package resource

// Handle is an opaque reference to a resource in a table.
// Handle 0 is reserved and always invalid.
//
// The low 16 bits hold a 1-based slot index and the high 16 bits the slot's
// generation, so a released handle never resolves to a later occupant.
type Handle uint32

const (
	indexBits = 16
	indexMask = 1<<indexBits - 1

	// MaxSlots is the largest number of simultaneously live handles.
	MaxSlots = indexMask

	maxGeneration = 1<<(32-indexBits) - 1
)

func makeHandle(index int, gen uint16) Handle {
	return Handle(uint32(gen)<<indexBits | uint32(index+1))
}

// index returns the 0-based slot index, or -1 for the null handle.
func (h Handle) index() int {
	return int(h&indexMask) - 1
}

func (h Handle) generation() uint16 {
	return uint16(h >> indexBits)
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for resources.
type Backend interface {
	// Create stores a value and returns a handle that aliases no live handle.
	Create(typeID uint32, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes a resource and returns (value, true) exactly once per handle.
	// Returns (nil, false) if the handle is absent.
	Drop(handle Handle) (any, bool)

	// Close releases all resources held by the backend.
	Close() error
}

// Table manages resources with type information and observer support.
type Table interface {
	// Insert adds a value and returns its handle.
	Insert(typeID uint32, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// GetTyped retrieves a value only if it matches the expected type.
	GetTyped(handle Handle, typeID uint32) (any, bool)

	// Remove drops a resource and returns (value, true) if found.
	Remove(handle Handle) (any, bool)

	// RemoveTyped drops a resource only if it matches the expected type.
	RemoveTyped(handle Handle, typeID uint32) (any, bool)

	// Subscribe adds an observer for lifecycle events.
	Subscribe(Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(Observer)

	// Len returns the number of active resources.
	Len() int

	// Clear drops all resources.
	Clear()

	// Close releases all resources and stops accepting operations.
	Close() error
}

// TypedTable provides type-safe access to resources of a specific type.
type TypedTable[T any] interface {
	// Insert adds a value and returns its handle.
	Insert(value T) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (T, bool)

	// Remove drops a resource and returns (value, true) if found.
	Remove(handle Handle) (T, bool)

	// Len returns the number of active resources.
	Len() int

	// Each iterates over all active resources.
	Each(func(Handle, T) bool)
}

// Dropper is optionally implemented by resource values that need cleanup
// when a table is cleared or closed with the value still registered.
type Dropper interface {
	Drop()
}
