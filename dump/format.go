package dump

// Stream layout:
//
//	magic "KVDUMP1\n" | codec byte | block* | uvarint 0
//	block:  uvarint rawLen | uvarint compLen | payload | xxh3(payload) u64 LE
//	record: uvarint klen | key | uvarint vlen | value
//
// A block holds whole records. rawLen is the decompressed size of payload.
const magic = "KVDUMP1\n"

const (
	// DefaultBlockSize is the raw size at which a block is flushed.
	DefaultBlockSize = 64 << 10

	// maxBlockSize bounds rawLen and compLen when reading.
	maxBlockSize = 64 << 20

	// DefaultBatchSize is the number of records Import applies per write.
	DefaultBatchSize = 1000
)
