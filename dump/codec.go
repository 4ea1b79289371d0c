package dump

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the block compression of a dump.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec maps a codec name to a Codec. The empty string means snappy.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "snappy":
		return CodecSnappy, nil
	case "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", s)
	}
}

// codec compresses and decompresses whole blocks.
type codec struct {
	kind Codec
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

func newCodec(kind Codec) (*codec, error) {
	c := &codec{kind: kind}
	switch kind {
	case CodecNone, CodecSnappy, CodecLZ4:
	case CodecZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			_ = enc.Close()
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		c.enc, c.dec = enc, dec
	default:
		return nil, fmt.Errorf("unsupported codec %s", kind)
	}
	return c, nil
}

func (c *codec) compress(raw []byte) ([]byte, error) {
	switch c.kind {
	case CodecSnappy:
		return snappy.Encode(nil, raw), nil
	case CodecZstd:
		return c.enc.EncodeAll(raw, nil), nil
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if err := w.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return nil, fmt.Errorf("lz4 apply level: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return raw, nil
	}
}

func (c *codec) decompress(payload []byte, rawLen int) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch c.kind {
	case CodecSnappy:
		raw, err = snappy.Decode(nil, payload)
	case CodecZstd:
		raw, err = c.dec.DecodeAll(payload, make([]byte, 0, rawLen))
	case CodecLZ4:
		raw, err = io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	default:
		raw = payload
	}
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", c.kind, err)
	}
	if len(raw) != rawLen {
		return nil, fmt.Errorf("%s decode: got %d bytes, want %d", c.kind, len(raw), rawLen)
	}
	return raw, nil
}

func (c *codec) close() {
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
