// Package dump streams the contents of a store to and from a compact,
// checksummed file.
//
// A dump is a header naming the block codec, a sequence of blocks and a
// terminator. Each block carries whole records, is compressed with snappy,
// zstd or lz4 (or stored raw) and is followed by the xxh3 hash of its
// payload. Import verifies every block before applying it and writes records
// through store batches, so a stream cut short leaves the target holding a
// prefix of whole batches.
package dump
