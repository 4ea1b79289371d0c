package resource

// Typed is a view over a UnifiedTable restricted to one resource type.
// Handles issued for other types resolve as absent.
type Typed[T any] struct {
	table  *UnifiedTable
	typeID uint32
}

var _ TypedTable[int] = (*Typed[int])(nil)

// NewTyped returns a typed view of table for typeID.
func NewTyped[T any](table *UnifiedTable, typeID uint32) *Typed[T] {
	return &Typed[T]{table: table, typeID: typeID}
}

// TypeID returns the type ID this view is bound to.
func (t *Typed[T]) TypeID() uint32 {
	return t.typeID
}

// Insert adds a value and returns its handle.
func (t *Typed[T]) Insert(value T) (Handle, error) {
	return t.table.Insert(t.typeID, value)
}

// Get retrieves a value by handle.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	v, ok := t.table.GetTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Remove drops a resource and returns (value, true) if found.
func (t *Typed[T]) Remove(handle Handle) (T, bool) {
	var zero T
	v, ok := t.table.RemoveTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Len returns the number of active resources of this type.
func (t *Typed[T]) Len() int {
	n := 0
	t.Each(func(Handle, T) bool {
		n++
		return true
	})
	return n
}

// Each iterates over all active resources of this type.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.Each(func(h Handle, typeID uint32, value any) bool {
		if typeID != t.typeID {
			return true
		}
		typed, ok := value.(T)
		if !ok {
			return true
		}
		return fn(h, typed)
	})
}
