package wasmhost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchGuestWASM imports kv.batch-create, exports one page of memory and a
// "run" function that creates a batch with its handle written at address 0
// and returns the status.
var batchGuestWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	// type section: (i32)->i32, ()->i32
	0x01, 0x0a, 0x02,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x00, 0x01, 0x7f,
	// import section: "kv" "batch-create" func type 0
	0x02, 0x13, 0x01,
	0x02, 0x6b, 0x76,
	0x0c, 0x62, 0x61, 0x74, 0x63, 0x68, 0x2d, 0x63, 0x72, 0x65, 0x61, 0x74, 0x65,
	0x00, 0x00,
	// function section: one function of type 1
	0x03, 0x02, 0x01, 0x01,
	// memory section: 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export section: "memory" memory 0, "run" func 1
	0x07, 0x10, 0x02,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00,
	0x03, 0x72, 0x75, 0x6e, 0x00, 0x01,
	// code section: i32.const 0; call 0; end
	0x0a, 0x08, 0x01,
	0x06, 0x00, 0x41, 0x00, 0x10, 0x00, 0x0b,
}

func TestRun(t *testing.T) {
	res, err := Run(context.Background(), batchGuestWASM, RunConfig{
		Host: Config{Root: t.TempDir()},
	})
	require.NoError(t, err)
	assert.Equal(t, "run", res.Func)
	assert.Equal(t, []string{"run"}, res.Exports)
	require.Len(t, res.Results, 1)
	assert.Zero(t, res.Results[0])
	assert.Equal(t, 1, res.Leaked.Batches)
}

func TestRun_MissingFunc(t *testing.T) {
	_, err := Run(context.Background(), batchGuestWASM, RunConfig{
		Host: Config{Root: t.TempDir()},
		Func: "nope",
	})
	assert.Error(t, err)
}

func TestPickEntry(t *testing.T) {
	tests := []struct {
		exports []string
		want    string
	}{
		{[]string{"main", "run"}, "run"},
		{[]string{"_start", "run"}, "_start"},
		{[]string{"only"}, "only"},
		{[]string{"a", "b"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pickEntry(tt.exports), "%v", tt.exports)
	}
}
