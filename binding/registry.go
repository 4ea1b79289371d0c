package binding

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/kvhost/errors"
	"github.com/wippyai/kvhost/resource"
	"github.com/wippyai/kvhost/store"
)

// Handle is the integer a caller holds in place of a store, cursor or batch.
type Handle = resource.Handle

// Resource type IDs in the shared handle table.
const (
	TypeStore uint32 = iota + 1
	TypeCursor
	TypeBatch
)

func typeName(id uint32) string {
	switch id {
	case TypeStore:
		return "store"
	case TypeCursor:
		return "cursor"
	case TypeBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// Options configures a Registry.
type Options struct {
	// Store is passed to store.Open and store.Destroy.
	Store *store.Options

	// MaxHandles caps live handles across all types. Zero means
	// resource.MaxSlots.
	MaxHandles int
}

// cursorEntry remembers which store handle a cursor belongs to.
type cursorEntry struct {
	cursor *store.Cursor
	owner  Handle
}

func (e *cursorEntry) Drop() {
	e.cursor.Drop()
}

// Stats counts live handles by type.
type Stats struct {
	Stores  int
	Cursors int
	Batches int
}

// Registry is the handle-level surface over store. Every operation resolves
// its handle first; an absent, released or wrong-typed handle reports
// HandleClosed. A Registry is safe for concurrent use.
type Registry struct {
	table   *resource.UnifiedTable
	stores  *resource.Typed[*store.DB]
	cursors *resource.Typed[*cursorEntry]
	batches *resource.Typed[*store.Batch]
	opts    *store.Options
	log     *zap.Logger
}

// NewRegistry creates an empty registry. opts may be nil.
func NewRegistry(opts *Options) *Registry {
	if opts == nil {
		opts = &Options{}
	}
	var tableOpts []resource.Option
	if opts.MaxHandles > 0 {
		tableOpts = append(tableOpts, resource.WithLimit(opts.MaxHandles))
	}

	table := resource.NewTable(tableOpts...)
	r := &Registry{
		table:   table,
		stores:  resource.NewTyped[*store.DB](table, TypeStore),
		cursors: resource.NewTyped[*cursorEntry](table, TypeCursor),
		batches: resource.NewTyped[*store.Batch](table, TypeBatch),
		opts:    opts.Store,
		log:     Logger(),
	}
	table.Subscribe(&handleLogger{log: r.log})
	return r
}

// Subscribe registers an observer for handle lifecycle events.
func (r *Registry) Subscribe(o resource.Observer) {
	r.table.Subscribe(o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o resource.Observer) {
	r.table.Unsubscribe(o)
}

// Stats returns the number of live handles of each type.
func (r *Registry) Stats() Stats {
	var s Stats
	r.table.Each(func(_ Handle, typeID uint32, _ any) bool {
		switch typeID {
		case TypeStore:
			s.Stores++
		case TypeCursor:
			s.Cursors++
		case TypeBatch:
			s.Batches++
		}
		return true
	})
	return s
}

// Close releases every handle: cursors first, then stores, then batches.
// The registry accepts no new handles afterwards.
func (r *Registry) Close() error {
	var first error
	r.cursors.Each(func(h Handle, e *cursorEntry) bool {
		if e, ok := r.cursors.Remove(h); ok {
			if err := e.cursor.Close(); err != nil && first == nil {
				first = err
			}
		}
		return true
	})
	r.stores.Each(func(h Handle, db *store.DB) bool {
		if db, ok := r.stores.Remove(h); ok {
			if err := db.Close(); err != nil && first == nil {
				first = err
			}
		}
		return true
	})
	r.batches.Each(func(h Handle, b *store.Batch) bool {
		if b, ok := r.batches.Remove(h); ok {
			b.Free()
		}
		return true
	})
	if err := r.table.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// insertError maps a handle table failure onto the boundary taxonomy.
func insertError(err error) error {
	if stderrors.Is(err, resource.ErrExhausted) {
		return errors.New(errors.PhaseHandle, errors.KindOutOfMemory).
			Detail("handle table exhausted").
			Cause(err).
			Build()
	}
	return errors.New(errors.PhaseHandle, errors.KindHandleClosed).
		Detail("Registry closed").
		Cause(err).
		Build()
}

// handleLogger traces handle lifecycle events.
type handleLogger struct {
	log *zap.Logger
}

func (l *handleLogger) OnResourceEvent(e resource.Event) {
	if ce := l.log.Check(zap.DebugLevel, "handle "+e.Type.String()); ce != nil {
		ce.Write(
			zap.Uint32("handle", uint32(e.Handle)),
			zap.String("type", typeName(e.TypeID)))
	}
}
