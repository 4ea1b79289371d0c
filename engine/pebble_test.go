package engine

import (
	"os"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T, fs vfs.FS) *PebbleEngine {
	t.Helper()
	eng, err := Open("db", &Options{FS: fs})
	require.NoError(t, err)
	return eng
}

func TestPebbleEngine(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, eng *PebbleEngine)
	}{
		{name: "basic_put_get", fn: testBasicPutGet},
		{name: "delete_operations", fn: testDelete},
		{name: "returned_slices_are_copies", fn: testCopies},
		{name: "apply_is_atomic", fn: testApply},
		{name: "iterator_order", fn: testIteratorOrder},
		{name: "store_closure", fn: testClosure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := openMem(t, vfs.NewMem())
			defer eng.Close()

			tc.fn(t, eng)
		})
	}
}

func testBasicPutGet(t *testing.T, eng *PebbleEngine) {
	require.NoError(t, eng.Set([]byte("k"), []byte("v")))

	got, err := eng.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = eng.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testDelete(t *testing.T, eng *PebbleEngine) {
	require.NoError(t, eng.Set([]byte("k"), []byte("v")))
	require.NoError(t, eng.Delete([]byte("k")))

	_, err := eng.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, eng.Delete([]byte("never-there")))
}

func testCopies(t *testing.T, eng *PebbleEngine) {
	key := []byte("k")
	val := []byte("value")
	require.NoError(t, eng.Set(key, val))

	// caller buffers may be reused after the call returns
	val[0] = 'X'
	got, err := eng.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	got[0] = 'Y'
	again, err := eng.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func testApply(t *testing.T, eng *PebbleEngine) {
	require.NoError(t, eng.Set([]byte("gone"), []byte("1")))

	err := eng.Apply([]Op{
		{Kind: OpPut, Key: []byte("a"), Value: []byte("1")},
		{Kind: OpPut, Key: []byte("b"), Value: []byte("2")},
		{Kind: OpDelete, Key: []byte("gone")},
	})
	require.NoError(t, err)

	v, err := eng.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	_, err = eng.Get([]byte("gone"))
	assert.ErrorIs(t, err, ErrNotFound)

	err = eng.Apply([]Op{
		{Kind: OpPut, Key: []byte("c"), Value: []byte("3")},
		{Kind: OpKind(9), Key: []byte("d")},
	})
	require.Error(t, err)
	_, err = eng.Get([]byte("c"))
	assert.ErrorIs(t, err, ErrNotFound, "rejected batch must not leak partial writes")
}

func testIteratorOrder(t *testing.T, eng *PebbleEngine) {
	for _, k := range []string{"b", "a", "d", "c"} {
		require.NoError(t, eng.Set([]byte(k), []byte("v"+k)))
	}

	it, err := eng.NewIterator()
	require.NoError(t, err)
	defer it.Close()

	assert.False(t, it.Valid(), "new iterator is unpositioned")

	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)

	require.True(t, it.SeekGE([]byte("bb")))
	assert.Equal(t, []byte("c"), it.Key())
	v, err := it.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("vc"), v)

	assert.False(t, it.SeekGE([]byte("z")))
	_, err = it.Value()
	assert.Error(t, err)

	require.NoError(t, it.Close())
	require.NoError(t, it.Close())
}

func testClosure(t *testing.T, eng *PebbleEngine) {
	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	_, err := eng.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, eng.Set([]byte("k"), nil), ErrClosed)
	assert.ErrorIs(t, eng.Delete([]byte("k")), ErrClosed)
	assert.ErrorIs(t, eng.Apply(nil), ErrClosed)
	_, err = eng.NewIterator()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_Options(t *testing.T) {
	fs := vfs.NewMem()

	_, err := Open("db", &Options{FS: fs, ErrorIfMissing: true})
	require.Error(t, err, "missing store with ErrorIfMissing")

	eng, err := Open("db", &Options{FS: fs, Compression: CompressionZstd, CacheSize: 1 << 20, NoSync: true})
	require.NoError(t, err)
	require.NoError(t, eng.Set([]byte("k"), []byte("v")))
	require.NoError(t, eng.Close())

	_, err = Open("db", &Options{FS: fs, ErrorIfExists: true})
	require.Error(t, err, "existing store with ErrorIfExists")
}

func TestDestroy(t *testing.T) {
	fs := vfs.NewMem()

	eng := openMem(t, fs)
	require.NoError(t, eng.Set([]byte("k"), []byte("v")))
	require.NoError(t, eng.Close())

	require.NoError(t, Destroy("db", &Options{FS: fs}))
	_, err := fs.Stat("db")
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, Destroy("db", &Options{FS: fs}), "destroying a missing store succeeds")

	eng = openMem(t, fs)
	defer eng.Close()
	_, err = eng.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroy_NonStoreDirectory(t *testing.T) {
	fs := vfs.NewMem()
	require.NoError(t, fs.MkdirAll("home", 0o755))
	f, err := fs.Create(fs.PathJoin("home", "notes.txt"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = Destroy("home", &Options{FS: fs})
	assert.ErrorIs(t, err, ErrNotStore)

	names, err := fs.List("home")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, names)
}

func TestDestroy_KeepsForeignFiles(t *testing.T) {
	fs := vfs.NewMem()

	eng := openMem(t, fs)
	require.NoError(t, eng.Set([]byte("k"), []byte("v")))
	require.NoError(t, eng.Close())

	f, err := fs.Create(fs.PathJoin("db", "README"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Destroy("db", &Options{FS: fs}))

	names, err := fs.List("db")
	require.NoError(t, err)
	assert.Equal(t, []string{"README"}, names)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionSnappy, false},
		{"snappy", CompressionSnappy, false},
		{"ZSTD", CompressionZstd, false},
		{"none", CompressionNone, false},
		{"lzma", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompression(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
