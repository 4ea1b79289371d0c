package engine

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Compression selects the block compression of a store.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionSnappy Compression = "snappy"
	CompressionZstd   Compression = "zstd"
)

// ParseCompression parses a compression name. The empty string selects
// snappy.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(s)); c {
	case "":
		return CompressionSnappy, nil
	case CompressionNone, CompressionSnappy, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q", s)
	}
}

func (c Compression) pebble() pebble.Compression {
	switch c {
	case CompressionNone:
		return pebble.NoCompression
	case CompressionZstd:
		return pebble.ZstdCompression
	default:
		return pebble.SnappyCompression
	}
}

// Options configures how a store is opened. The zero value creates missing
// stores, compresses with snappy and syncs every write.
type Options struct {
	// FS overrides the filesystem. Defaults to the OS filesystem.
	FS vfs.FS

	Compression Compression

	// CacheSize is the block cache size in bytes. Zero uses pebble's default.
	CacheSize int64

	// MemTableSize in bytes. Zero uses pebble's default.
	MemTableSize uint64

	// ErrorIfMissing fails Open when no store exists at the path.
	ErrorIfMissing bool

	// ErrorIfExists fails Open when a store already exists at the path.
	ErrorIfExists bool

	// NoSync skips fsync on writes.
	NoSync bool

	// ReadOnly opens the store without write access.
	ReadOnly bool
}

func (o *Options) fs() vfs.FS {
	if o == nil || o.FS == nil {
		return vfs.Default
	}
	return o.FS
}

func (o *Options) writeOptions() *pebble.WriteOptions {
	if o != nil && o.NoSync {
		return pebble.NoSync
	}
	return pebble.Sync
}

// pebbleOptions builds pebble options. The returned cache, if any, must be
// released with Unref once Open returns.
func (o *Options) pebbleOptions() (*pebble.Options, *pebble.Cache) {
	if o == nil {
		o = &Options{}
	}
	opts := &pebble.Options{
		FS:               o.fs(),
		ErrorIfExists:    o.ErrorIfExists,
		ErrorIfNotExists: o.ErrorIfMissing,
		ReadOnly:         o.ReadOnly,
		Logger:           pebbleLogger{s: Logger().Sugar()},
		Levels: []pebble.LevelOptions{
			{Compression: o.Compression.pebble()},
		},
	}
	if o.MemTableSize > 0 {
		opts.MemTableSize = o.MemTableSize
	}

	var cache *pebble.Cache
	if o.CacheSize > 0 {
		cache = pebble.NewCache(o.CacheSize)
		opts.Cache = cache
	}
	return opts, cache
}
