// Package store wraps an engine in the three resources a binding hands out:
// DB, Cursor and Batch.
//
// # Lifecycle
//
// A DB owns its engine and every cursor created from it. Close closes the
// cursors first, then the engine; closing twice is a no-op. A failed Write
// releases the DB the same way, so every later call reports HandleClosed.
//
// A Cursor moves through four states:
//
//	Unpositioned --SeekToFirst/Seek--> Valid | Exhausted
//	Valid        --Next-------------> Valid | Exhausted
//	any          --Close------------> Closed
//
// Key and Value require Valid and report InvalidCursor otherwise. Next from
// Unpositioned or Exhausted also reports InvalidCursor. SeekToFirst and Seek
// work from any state but Closed.
//
// A Batch buffers copies of its ops and belongs to no DB. Writing it does
// not clear it.
//
// # Inputs
//
// Keys must be non-empty and values non-nil. Returned slices are always
// fresh copies.
package store
