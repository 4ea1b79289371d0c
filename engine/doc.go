// Package engine adapts pebble to the small Engine interface the store
// wrappers are written against.
//
// Every slice returned by an Engine or Iterator is a fresh copy; pebble's
// internal buffers never escape this package. Get reports a missing key with
// ErrNotFound; every other failure is returned as pebble produced it.
//
// Options defaults follow the store's historical behavior: missing stores
// are created, blocks are snappy-compressed, and writes are synced.
//
//	eng, err := engine.Open(path, &engine.Options{CacheSize: 8 << 20})
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
// Tests use an in-memory filesystem:
//
//	eng, err := engine.Open("db", &engine.Options{FS: vfs.NewMem()})
package engine
