package dump

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/zeebo/xxh3"

	"github.com/wippyai/kvhost/errors"
)

// Writer encodes records into a dump stream.
type Writer struct {
	w         *bufio.Writer
	codec     *codec
	block     []byte
	blockSize int
	records   int
	closed    bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBlockSize sets the raw size at which blocks are flushed.
func WithBlockSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 && n <= maxBlockSize {
			w.blockSize = n
		}
	}
}

// NewWriter writes the stream header to w.
func NewWriter(w io.Writer, kind Codec, opts ...WriterOption) (*Writer, error) {
	c, err := newCodec(kind)
	if err != nil {
		return nil, errors.Failure(errors.PhaseDump, "Failed to create writer", err)
	}
	dw := &Writer{
		w:         bufio.NewWriter(w),
		codec:     c,
		blockSize: DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(dw)
	}
	if _, err := dw.w.WriteString(magic); err != nil {
		c.close()
		return nil, errors.Failure(errors.PhaseDump, "Failed to write header", err)
	}
	if err := dw.w.WriteByte(byte(kind)); err != nil {
		c.close()
		return nil, errors.Failure(errors.PhaseDump, "Failed to write header", err)
	}
	return dw, nil
}

// Add appends one record. key and value are copied into the pending block.
func (w *Writer) Add(key, value []byte) error {
	if w.closed {
		return errors.HandleClosed(errors.PhaseDump, "Writer")
	}
	w.block = binary.AppendUvarint(w.block, uint64(len(key)))
	w.block = append(w.block, key...)
	w.block = binary.AppendUvarint(w.block, uint64(len(value)))
	w.block = append(w.block, value...)
	w.records++
	if len(w.block) >= w.blockSize {
		return w.flush()
	}
	return nil
}

// Records returns the number of records added so far.
func (w *Writer) Records() int {
	return w.records
}

func (w *Writer) flush() error {
	if len(w.block) == 0 {
		return nil
	}
	payload, err := w.codec.compress(w.block)
	if err != nil {
		return errors.Failure(errors.PhaseDump, "Failed to compress block", err)
	}

	var hdr [2 * binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(w.block)))
	n += binary.PutUvarint(hdr[n:], uint64(len(payload)))
	var sum [8]byte
	binary.LittleEndian.PutUint64(sum[:], xxh3.Hash(payload))

	for _, part := range [][]byte{hdr[:n], payload, sum[:]} {
		if _, err := w.w.Write(part); err != nil {
			return errors.Failure(errors.PhaseDump, "Failed to write block", err)
		}
	}
	w.block = w.block[:0]
	return nil
}

// Close flushes the pending block and writes the terminator. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.codec.close()

	if err := w.flush(); err != nil {
		return err
	}
	if err := w.w.WriteByte(0); err != nil {
		return errors.Failure(errors.PhaseDump, "Failed to write terminator", err)
	}
	if err := w.w.Flush(); err != nil {
		return errors.Failure(errors.PhaseDump, "Failed to flush", err)
	}
	return nil
}
