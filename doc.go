// Package kvhost exposes an embedded key-value store to callers that can only
// hold integer handles and exchange raw byte buffers, chiefly WebAssembly
// guests running under wazero.
//
// # Architecture Overview
//
//	kvhost/            Root package with the guest Memory and Allocator interfaces
//	├── errors/        Outcome taxonomy and numeric status codes
//	├── resource/      Generational handle registry
//	├── engine/        pebble adapter behind a small Engine interface
//	├── store/         DB, Cursor and Batch wrappers with their state machines
//	├── binding/       Handle-level surface over store
//	├── wasmhost/      wazero host module marshaling bytes across guest memory
//	├── dump/          Framed, compressed export and import of a store
//	└── cmd/kvhost/    CLI, guest runner and interactive browser
//
// # Quick Start
//
// Use a store directly:
//
//	db, err := store.Open("/tmp/kv", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	_ = db.Put([]byte("a"), []byte("1"))
//	v, err := db.Get([]byte("a"))
//
// Or through handles:
//
//	reg := binding.NewRegistry(nil)
//	defer reg.Close()
//
//	h, _ := reg.StoreOpen("/tmp/kv")
//	_ = reg.Put(h, []byte("a"), []byte("1"))
//
// Or from a guest, by instantiating the "kv" host module before the guest:
//
//	host, err := wasmhost.Instantiate(ctx, rt, wasmhost.Config{Root: dir})
//	defer host.Close(ctx)
//
// # Ownership
//
// Every byte buffer is copied when it crosses a boundary. Guests never see
// engine memory, and the engine never keeps a reference to guest memory.
//
// # Thread Safety
//
// Stores and the handle registry are safe for concurrent use. Cursors are
// not, and must not outlive their store.
package kvhost
