package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/kvhost/errors"
)

func seed(t *testing.T, db *DB, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, db.Put([]byte(kv[i]), []byte(kv[i+1])))
	}
}

func TestCursor_Walk(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	seed(t, db, "a", "1", "b", "2")

	c, err := db.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SeekToFirst())
	ok, err := c.IsValid()
	require.NoError(t, err)
	assert.True(t, ok)

	k, err := c.Key()
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), k)
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Next())
	k, err = c.Key()
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), k)

	require.NoError(t, c.Next())
	ok, err = c.IsValid()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Exhausted, c.State())

	_, err = c.Key()
	assert.ErrorIs(t, err, errors.ErrInvalidCursor)
	_, err = c.Value()
	assert.ErrorIs(t, err, errors.ErrInvalidCursor)
	assert.ErrorIs(t, c.Next(), errors.ErrInvalidCursor)
	assert.Equal(t, errors.StatusInvalidCursor, errors.StatusOf(c.Next()))

	// repositioning from Exhausted is allowed
	require.NoError(t, c.SeekToFirst())
	assert.Equal(t, Valid, c.State())
}

func TestCursor_Unpositioned(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	seed(t, db, "a", "1")

	c, err := db.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, Unpositioned, c.State())
	ok, err := c.IsValid()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Key()
	assert.ErrorIs(t, err, errors.ErrInvalidCursor)
	_, err = c.Value()
	assert.ErrorIs(t, err, errors.ErrInvalidCursor)

	err = c.Next()
	assert.ErrorIs(t, err, errors.ErrInvalidCursor)
	assert.Equal(t, "Cursor is not valid", errors.MessageOf(err))
}

func TestCursor_SeekLowerBound(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	seed(t, db, "a", "1", "c", "3", "e", "5")

	c, err := db.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	tests := []struct {
		seek  string
		want  string
		valid bool
	}{
		{"a", "a", true},
		{"b", "c", true},
		{"c", "c", true},
		{"d", "e", true},
		{"f", "", false},
		{"", "a", true},
	}
	for _, tt := range tests {
		t.Run("seek_"+tt.seek, func(t *testing.T) {
			require.NoError(t, c.Seek([]byte(tt.seek)))
			ok, err := c.IsValid()
			require.NoError(t, err)
			require.Equal(t, tt.valid, ok)
			if !tt.valid {
				return
			}
			k, err := c.Key()
			require.NoError(t, err)
			assert.Equal(t, []byte(tt.want), k)
		})
	}

	assert.ErrorIs(t, c.Seek(nil), errors.ErrInvalidInput)
}

func TestCursor_ByteOrder(t *testing.T) {
	db := openMem(t)
	defer db.Close()

	keys := [][]byte{{0xff}, {0x00, 0x01}, {0x00}, {0x7f, 0xff}, {0x80}}
	for _, k := range keys {
		require.NoError(t, db.Put(k, []byte{1}))
	}

	c, err := db.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	var got [][]byte
	for err = c.SeekToFirst(); err == nil && c.State() == Valid; err = c.Next() {
		k, kerr := c.Key()
		require.NoError(t, kerr)
		got = append(got, k)
	}
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x00}, {0x00, 0x01}, {0x7f, 0xff}, {0x80}, {0xff}}, got)
}

func TestCursor_EmptyStore(t *testing.T) {
	db := openMem(t)
	defer db.Close()

	c, err := db.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SeekToFirst())
	assert.Equal(t, Exhausted, c.State())
}

func TestCursor_Close(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	seed(t, db, "a", "1")

	c, err := db.NewCursor()
	require.NoError(t, err)
	assert.Equal(t, 1, db.Cursors())

	require.NoError(t, c.SeekToFirst())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 0, db.Cursors())

	assert.ErrorIs(t, c.SeekToFirst(), errors.ErrHandleClosed)
	assert.ErrorIs(t, c.Seek([]byte("a")), errors.ErrHandleClosed)
	assert.ErrorIs(t, c.Next(), errors.ErrHandleClosed)
	_, err = c.IsValid()
	assert.ErrorIs(t, err, errors.ErrHandleClosed)
	_, err = c.Key()
	assert.ErrorIs(t, err, errors.ErrHandleClosed)
	_, err = c.Value()
	assert.ErrorIs(t, err, errors.ErrHandleClosed)
	assert.Equal(t, "Iterator closed", errors.MessageOf(c.Next()))

	// the store is unaffected
	_, err = db.Get([]byte("a"))
	require.NoError(t, err)
}
