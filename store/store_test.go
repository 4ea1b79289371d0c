package store

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/pebble/vfs/errorfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/kvhost/engine"
	"github.com/wippyai/kvhost/errors"
)

func openMem(t *testing.T) *DB {
	t.Helper()
	db, err := Open("db", &Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	return db
}

func TestDB(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, db *DB)
	}{
		{name: "put_then_get", fn: testPutGet},
		{name: "delete_then_get", fn: testDeleteGet},
		{name: "exists", fn: testExists},
		{name: "copies_on_every_crossing", fn: testCopies},
		{name: "input_validation", fn: testValidation},
		{name: "close_is_idempotent", fn: testCloseIdempotent},
		{name: "counter_roundtrip", fn: testCounter},
		{name: "concurrent_access", fn: testConcurrent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := openMem(t)
			defer db.Close()

			tc.fn(t, db)
		})
	}
}

func testPutGet(t *testing.T, db *DB) {
	require.NoError(t, db.Put([]byte("k"), []byte("v")))

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, db.Put([]byte("k"), []byte("v2")))
	got, err = db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, db.Put([]byte("empty"), []byte{}))
	got, err = db.Get([]byte("empty"))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = db.Get([]byte("missing"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, errors.StatusNotFound, errors.StatusOf(err))
}

func testDeleteGet(t *testing.T, db *DB) {
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Delete([]byte("k")))

	_, err := db.Get([]byte("k"))
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.NoError(t, db.Delete([]byte("never-there")))
}

func testExists(t *testing.T, db *DB) {
	ok, err := db.Exists([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	ok, err = db.Exists([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func testCopies(t *testing.T, db *DB) {
	key := []byte("k")
	val := []byte("value")
	require.NoError(t, db.Put(key, val))
	val[0] = 'X'

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	got[0] = 'Y'
	again, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)

	b := NewBatch()
	bk := []byte("bk")
	bv := []byte("bv")
	require.NoError(t, b.Put(bk, bv))
	bk[0], bv[0] = 'z', 'z'
	require.NoError(t, db.Write(b))

	got, err = db.Get([]byte("bk"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bv"), got)
}

func testValidation(t *testing.T, db *DB) {
	cases := []struct {
		name string
		err  error
	}{
		{"get nil key", func() error { _, err := db.Get(nil); return err }()},
		{"get empty key", func() error { _, err := db.Get([]byte{}); return err }()},
		{"put empty key", db.Put([]byte{}, []byte("v"))},
		{"put nil value", db.Put([]byte("k"), nil)},
		{"delete empty key", db.Delete(nil)},
		{"write nil batch", db.Write(nil)},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.err, errors.ErrInvalidInput, c.name)
	}

	_, err := Open("", nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.ErrorIs(t, Destroy("", nil), errors.ErrInvalidInput)
}

func testCloseIdempotent(t *testing.T, db *DB) {
	c, err := db.NewCursor()
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
	assert.True(t, db.Closed())

	_, err = db.Get([]byte("k"))
	assert.ErrorIs(t, err, errors.ErrHandleClosed)
	assert.ErrorIs(t, db.Put([]byte("k"), []byte("v")), errors.ErrHandleClosed)
	assert.ErrorIs(t, db.Delete([]byte("k")), errors.ErrHandleClosed)
	assert.ErrorIs(t, db.Write(NewBatch()), errors.ErrHandleClosed)
	_, err = db.NewCursor()
	assert.ErrorIs(t, err, errors.ErrHandleClosed)

	// cursors do not outlive their store
	assert.Equal(t, Closed, c.State())
	assert.ErrorIs(t, c.SeekToFirst(), errors.ErrHandleClosed)
	assert.NoError(t, c.Close())
}

func testCounter(t *testing.T, db *DB) {
	key := []byte("key")
	for i := 0; i < 3; i++ {
		var n uint64
		raw, err := db.Get(key)
		switch {
		case errors.IsNotFound(err):
		case err != nil:
			t.Fatalf("get: %v", err)
		default:
			n = binary.BigEndian.Uint64(raw)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, n+1)
		require.NoError(t, db.Put(key, buf))
	}

	raw, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), binary.BigEndian.Uint64(raw))
}

func testConcurrent(t *testing.T, db *DB) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				k := []byte(fmt.Sprintf("w%d-%03d", id, j))
				if err := db.Put(k, k); err != nil {
					t.Errorf("put: %v", err)
					return
				}
				if _, err := db.Get(k); err != nil {
					t.Errorf("get: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	c, err := db.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	n := 0
	for err = c.SeekToFirst(); err == nil; err = c.Next() {
		ok, _ := c.IsValid()
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 400, n)
}

func TestDestroyThenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")

	db, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(path, nil)
	require.NoError(t, err)
	got, err := db.Get([]byte("k"))
	require.NoError(t, err, "data persists across reopen")
	assert.Equal(t, []byte("v"), got)
	require.NoError(t, db.Close())

	require.NoError(t, Destroy(path, nil))

	db, err = Open(path, nil)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Get([]byte("k"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOpen_Failure(t *testing.T) {
	fs := vfs.NewMem()
	_, err := Open("db", &Options{FS: fs, ErrorIfMissing: true})
	require.Error(t, err)
	assert.Equal(t, errors.StatusFailure, errors.StatusOf(err))
	assert.Contains(t, errors.MessageOf(err), "Failed to open")
}

// faultEngine fails selected calls on top of a real engine.
type faultEngine struct {
	engine.Engine
	applyErr  error
	getErr    error
	deleteErr error
}

func (f *faultEngine) Apply(ops []engine.Op) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	return f.Engine.Apply(ops)
}

func (f *faultEngine) Get(key []byte) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Engine.Get(key)
}

func (f *faultEngine) Delete(key []byte) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Engine.Delete(key)
}

func newFaultDB(t *testing.T) (*DB, *faultEngine) {
	t.Helper()
	eng, err := engine.Open("db", &engine.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	f := &faultEngine{Engine: eng}
	return New(f), f
}

func TestDB_EngineFailures(t *testing.T) {
	db, f := newFaultDB(t)
	defer db.Close()

	f.getErr = stderrors.New("checksum mismatch")
	_, err := db.Get([]byte("k"))
	require.Error(t, err)
	assert.Equal(t, errors.StatusFailure, errors.StatusOf(err))
	assert.Contains(t, errors.MessageOf(err), "checksum mismatch")
	f.getErr = nil

	f.deleteErr = stderrors.New("io error")
	err = db.Delete([]byte("k"))
	assert.Equal(t, "Failed to delete: io error", errors.MessageOf(err))
	f.deleteErr = nil

	// the store stays usable after an ordinary failure
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	assert.False(t, db.Closed())
}

func TestDB_FailedWriteReleasesStore(t *testing.T) {
	db, f := newFaultDB(t)

	require.NoError(t, db.Put([]byte("before"), []byte("1")))
	c, err := db.NewCursor()
	require.NoError(t, err)

	b := NewBatch()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))

	f.applyErr = stderrors.New("commit failed")
	err = db.Write(b)
	require.Error(t, err)
	assert.Equal(t, errors.StatusFailure, errors.StatusOf(err))

	assert.True(t, db.Closed())
	_, err = db.Get([]byte("before"))
	assert.ErrorIs(t, err, errors.ErrHandleClosed)
	assert.Equal(t, Closed, c.State())

	// the batch survives its failed write
	assert.Equal(t, 2, b.Len())

	// the engine itself was closed
	_, err = f.Engine.Get([]byte("a"))
	assert.ErrorIs(t, err, engine.ErrClosed)
}

// walFaults fails writes to WAL files while armed.
func walFaults(fs vfs.FS) (*errorfs.FS, *atomic.Bool) {
	armed := new(atomic.Bool)
	return errorfs.Wrap(fs, errorfs.InjectorFunc(func(op errorfs.Op, path string) error {
		if armed.Load() && op == errorfs.OpFileWrite && strings.HasSuffix(path, ".log") {
			return errorfs.ErrInjected
		}
		return nil
	})), armed
}

func TestDB_FailedWriteIsAtomic(t *testing.T) {
	mem := vfs.NewMem()
	fs, armed := walFaults(mem)

	db, err := Open("db", &Options{FS: fs})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("before"), []byte("1")))

	b := NewBatch()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("before")))

	armed.Store(true)
	err = db.Write(b)
	require.Error(t, err)
	assert.Equal(t, errors.StatusFailure, errors.StatusOf(err))
	assert.ErrorIs(t, err, errorfs.ErrInjected)
	assert.True(t, db.Closed())
	armed.Store(false)

	reopened, err := Open("db", &Options{FS: mem})
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get([]byte("before"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	for _, k := range []string{"a", "b"} {
		_, err = reopened.Get([]byte(k))
		assert.ErrorIs(t, err, errors.ErrNotFound, k)
	}
}
