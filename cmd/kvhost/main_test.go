package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/kvhost/errors"
	"github.com/wippyai/kvhost/store"
)

func newCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &cli{
		dbPath: filepath.Join(t.TempDir(), "db"),
		opts:   &store.Options{NoSync: true},
		out:    &out,
	}, &out
}

func TestCLI_PointOps(t *testing.T) {
	c, out := newCLI(t)

	require.NoError(t, c.dispatch("put", []string{"greeting", "hello"}))
	require.NoError(t, c.dispatch("get", []string{"greeting"}))
	assert.Equal(t, "hello\n", out.String())

	out.Reset()
	require.NoError(t, c.dispatch("exists", []string{"greeting"}))
	assert.Equal(t, "true\n", out.String())

	require.NoError(t, c.dispatch("delete", []string{"greeting"}))
	err := c.dispatch("get", []string{"greeting"})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.Error(t, c.dispatch("put", []string{"only-key"}))
	assert.Error(t, c.dispatch("bogus", nil))
}

func TestCLI_Hex(t *testing.T) {
	c, out := newCLI(t)
	c.hex = true

	require.NoError(t, c.dispatch("put", []string{"00ff", "0102"}))
	require.NoError(t, c.dispatch("get", []string{"00ff"}))
	assert.Equal(t, "0102\n", out.String())

	assert.Error(t, c.dispatch("get", []string{"zz"}))
}

func TestCLI_Scan(t *testing.T) {
	c, out := newCLI(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.dispatch("put", []string{k, "v" + k}))
	}

	require.NoError(t, c.dispatch("scan", []string{"-from", "b", "-to", "d"}))
	assert.Equal(t, "b\tvb\nc\tvc\n", out.String())

	out.Reset()
	require.NoError(t, c.dispatch("scan", []string{"-limit", "1"}))
	assert.Equal(t, "a\tva\n", out.String())
}

func TestCLI_DumpLoad(t *testing.T) {
	src, _ := newCLI(t)
	for _, k := range []string{"x", "y"} {
		require.NoError(t, src.dispatch("put", []string{k, strings.Repeat(k, 10)}))
	}
	file := filepath.Join(t.TempDir(), "kv.dump")
	require.NoError(t, src.dispatch("dump", []string{"-out", file, "-codec", "zstd"}))

	dst, out := newCLI(t)
	require.NoError(t, dst.dispatch("load", []string{"-in", file}))
	assert.Equal(t, "loaded 2 entries\n", out.String())

	out.Reset()
	require.NoError(t, dst.dispatch("get", []string{"y"}))
	assert.Equal(t, "yyyyyyyyyy\n", out.String())

	require.NoError(t, dst.dispatch("destroy", nil))
	assert.ErrorIs(t, dst.dispatch("get", []string{"y"}), errors.ErrNotFound)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "plain", display([]byte("plain")))
	assert.Equal(t, "0x00ff", display([]byte{0x00, 0xff}))
	assert.Equal(t, "", display(nil))
	assert.Equal(t, "abc…", truncate("abcdefg", 4))
	assert.Equal(t, "abc", truncate("abc", 4))
}

func TestBrowser_Paging(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "db"), nil)
	require.NoError(t, err)
	defer db.Close()
	for i := 0; i < pageSize+5; i++ {
		require.NoError(t, db.Put([]byte{byte('a' + i)}, []byte("v")))
	}
	cursor, err := db.NewCursor()
	require.NoError(t, err)
	defer cursor.Close()

	m := newBrowserModel(cursor, "db")
	m.Update(m.Init()())
	require.Len(t, m.entries, pageSize)
	assert.Equal(t, []byte{byte('a' + pageSize)}, m.next)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Len(t, m.entries, 5)
	assert.Nil(t, m.next)
	assert.Len(t, m.starts, 2)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Len(t, m.entries, pageSize)
	assert.Len(t, m.starts, 1)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	assert.Equal(t, stateSeek, m.state)
	m.input.SetValue("c")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, []byte("c"), m.entries[0].key)
	assert.Contains(t, m.View(), "KV Browser")
}
