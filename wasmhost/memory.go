package wasmhost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/kvhost"
)

// WrapMemory wraps a wazero api.Memory to implement kvhost.Memory.
func WrapMemory(mem api.Memory) kvhost.Memory {
	if mem == nil {
		return nil
	}
	return &memoryWrapper{mem: mem}
}

// memoryWrapper adapts wazero api.Memory to kvhost.Memory. Read copies out
// of linear memory, which may move when the guest grows it.
type memoryWrapper struct {
	mem api.Memory
}

func (m *memoryWrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *memoryWrapper) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *memoryWrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *memoryWrapper) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// Guest allocator exports, in lookup order. The realloc family takes
// (old_ptr, old_size, align, new_size); the malloc family takes (size).
var (
	reallocExports = []string{"cabi_realloc", "canonical_abi_realloc"}
	mallocExports  = []string{"alloc", "malloc"}
)

// GuestAllocator finds the allocator exported by mod, or returns nil.
func GuestAllocator(ctx context.Context, mod api.Module) kvhost.Allocator {
	if mod == nil {
		return nil
	}
	for _, name := range reallocExports {
		if fn := mod.ExportedFunction(name); fn != nil {
			return WrapAllocator(ctx, fn)
		}
	}
	for _, name := range mallocExports {
		if fn := mod.ExportedFunction(name); fn != nil {
			return &mallocWrapper{ctx: ctx, fn: fn, free: mod.ExportedFunction("free")}
		}
	}
	return nil
}

// WrapAllocator wraps a cabi_realloc style function to implement kvhost.Allocator.
func WrapAllocator(ctx context.Context, fn api.Function) kvhost.Allocator {
	if fn == nil {
		return nil
	}
	return &reallocWrapper{ctx: ctx, fn: fn}
}

type reallocWrapper struct {
	ctx context.Context
	fn  api.Function
}

func (a *reallocWrapper) Alloc(size, align uint32) (uint32, error) {
	results, err := a.fn.Call(a.ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	return api.DecodeU32(results[0]), nil
}

func (a *reallocWrapper) Free(ptr, size, align uint32) {
	_, _ = a.fn.Call(a.ctx, uint64(ptr), uint64(size), uint64(align), 0)
}

type mallocWrapper struct {
	ctx  context.Context
	fn   api.Function
	free api.Function
}

func (a *mallocWrapper) Alloc(size, _ uint32) (uint32, error) {
	results, err := a.fn.Call(a.ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	return api.DecodeU32(results[0]), nil
}

func (a *mallocWrapper) Free(ptr, _, _ uint32) {
	if a.free != nil {
		_, _ = a.free.Call(a.ctx, uint64(ptr))
	}
}
