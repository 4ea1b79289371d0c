package dump

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"

	"github.com/wippyai/kvhost/errors"
)

// Reader decodes records from a dump stream.
type Reader struct {
	r     *bufio.Reader
	codec *codec
	kind  Codec
	block []byte
	off   int
	done  bool
}

// NewReader reads and checks the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	hdr := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, errors.Failure(errors.PhaseDump, "Failed to read header", err)
	}
	if string(hdr[:len(magic)]) != magic {
		return nil, errors.Failure(errors.PhaseDump, "Not a dump stream", nil)
	}
	kind := Codec(hdr[len(magic)])
	c, err := newCodec(kind)
	if err != nil {
		return nil, errors.Failure(errors.PhaseDump, "Failed to read header", err)
	}
	return &Reader{r: br, codec: c, kind: kind}, nil
}

// Codec returns the stream's codec.
func (r *Reader) Codec() Codec {
	return r.kind
}

// Close releases decoder resources. Reading to io.EOF also releases them.
func (r *Reader) Close() {
	r.codec.close()
}

// Next returns the next record, or io.EOF after the terminator. The returned
// slices are valid until the following call.
func (r *Reader) Next() (key, value []byte, err error) {
	for r.off >= len(r.block) {
		if r.done {
			return nil, nil, io.EOF
		}
		if err := r.readBlock(); err != nil {
			return nil, nil, err
		}
	}
	key, err = r.field()
	if err != nil {
		return nil, nil, err
	}
	value, err = r.field()
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

func (r *Reader) field() ([]byte, error) {
	n, w := binary.Uvarint(r.block[r.off:])
	if w <= 0 || n > uint64(len(r.block)-r.off-w) {
		return nil, errors.Failure(errors.PhaseDump, "Corrupt record", fmt.Errorf("at offset %d", r.off))
	}
	r.off += w
	b := r.block[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *Reader) readBlock() error {
	rawLen, err := binary.ReadUvarint(r.r)
	if err != nil {
		return errors.Failure(errors.PhaseDump, "Truncated stream", err)
	}
	if rawLen == 0 {
		r.done = true
		r.block, r.off = nil, 0
		r.codec.close()
		return nil
	}
	compLen, err := binary.ReadUvarint(r.r)
	if err != nil {
		return errors.Failure(errors.PhaseDump, "Truncated stream", err)
	}
	if rawLen > maxBlockSize || compLen > maxBlockSize {
		return errors.Failure(errors.PhaseDump, "Corrupt block",
			fmt.Errorf("block of %d/%d bytes exceeds %d", rawLen, compLen, maxBlockSize))
	}

	payload := make([]byte, compLen+8)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return errors.Failure(errors.PhaseDump, "Truncated stream", err)
	}
	sum := binary.LittleEndian.Uint64(payload[compLen:])
	payload = payload[:compLen]
	if got := xxh3.Hash(payload); got != sum {
		return errors.Failure(errors.PhaseDump, "Checksum mismatch",
			fmt.Errorf("got %016x, want %016x", got, sum))
	}

	raw, err := r.codec.decompress(payload, int(rawLen))
	if err != nil {
		return errors.Failure(errors.PhaseDump, "Corrupt block", err)
	}
	r.block, r.off = raw, 0
	return nil
}
