package dump

import (
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/kvhost/store"
)

// Export streams every entry of db in key order to w.
func Export(db *store.DB, w io.Writer, kind Codec, opts ...WriterOption) (int, error) {
	dw, err := NewWriter(w, kind, opts...)
	if err != nil {
		return 0, err
	}
	c, err := db.NewCursor()
	if err != nil {
		_ = dw.Close()
		return 0, err
	}
	defer c.Close()

	err = c.SeekToFirst()
	for err == nil {
		var ok bool
		if ok, err = c.IsValid(); err != nil || !ok {
			break
		}
		var k, v []byte
		if k, err = c.Key(); err != nil {
			break
		}
		if v, err = c.Value(); err != nil {
			break
		}
		if err = dw.Add(k, v); err != nil {
			break
		}
		err = c.Next()
	}
	if err != nil {
		_ = dw.Close()
		return dw.Records(), err
	}
	if err := dw.Close(); err != nil {
		return dw.Records(), err
	}
	Logger().Debug("store exported",
		zap.String("path", db.Path()),
		zap.Stringer("codec", kind),
		zap.Int("records", dw.Records()))
	return dw.Records(), nil
}

// Import loads a stream written by Export into db, applying batchSize
// records per atomic write. A batchSize of zero means DefaultBatchSize.
// Records already applied stay applied when a later block fails.
func Import(db *store.DB, r io.Reader, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	dr, err := NewReader(r)
	if err != nil {
		return 0, err
	}
	defer dr.Close()

	b := store.NewBatch()
	defer b.Free()

	n := 0
	for {
		k, v, err := dr.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
		if err := b.Put(k, v); err != nil {
			return n, err
		}
		if b.Len() >= batchSize {
			if err := commit(db, b); err != nil {
				return n, err
			}
			n += batchSize
		}
	}
	pending := b.Len()
	if pending > 0 {
		if err := commit(db, b); err != nil {
			return n, err
		}
		n += pending
	}
	Logger().Debug("store imported",
		zap.String("path", db.Path()),
		zap.Stringer("codec", dr.Codec()),
		zap.Int("records", n))
	return n, nil
}

func commit(db *store.DB, b *store.Batch) error {
	if err := db.Write(b); err != nil {
		return err
	}
	return b.Clear()
}
