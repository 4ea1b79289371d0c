// Package resource provides the opaque handle registry that stands between
// host-side objects and the callers that refer to them by integer.
//
// # Handle Table
//
// The UnifiedTable maps 32-bit handles to Go values:
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle
//	handle, err := table.Insert(typeID, myValue)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Remove and take ownership back
//	value, ok := table.Remove(handle)
//
// Handle 0 is never issued. A handle carries its slot's generation, so a
// released handle stays absent even after its slot is reused. Remove returns
// (value, true) exactly once per handle; every later call reports false.
//
// # Type Safety
//
// Each resource type gets a type ID. Typed views restrict a shared table to
// one of them:
//
//	stores := resource.NewTyped[*Store](table, 1)
//	cursors := resource.NewTyped[*Cursor](table, 2)
//
//	h, _ := stores.Insert(s)
//	_, ok := cursors.Get(h) // !ok
//
// # Observers
//
// Observers receive EventCreated and EventDropped for every handle.
//
// # Memory Management
//
// Values are not garbage collected while registered. Callers remove handles
// explicitly; Clear and Close call Drop on any value implementing Dropper
// that is still registered at that point.
package resource
