// Package wasmhost exposes a binding.Registry to WebAssembly guests as a
// wazero host module.
//
// Every import takes core i32 parameters and returns an i32 status from
// errors.Status. Byte arguments are (ptr, len) pairs in guest memory and are
// copied out before the call proceeds. Byte results are copied into a buffer
// allocated through the guest's own allocator export (cabi_realloc,
// canonical_abi_realloc, alloc or malloc) and reported as an 8-byte
// (ptr, len) pair at the caller's out pointer; the guest owns that buffer.
//
// Store paths supplied by a guest are resolved under Config.Root and cannot
// escape it.
//
//	h, err := wasmhost.Instantiate(ctx, rt, wasmhost.Config{Root: dir})
//	if err != nil {
//		return err
//	}
//	defer h.Close(ctx)
//
// Run wires WASI and the host module into a fresh runtime and calls a
// guest's entry point, which is what `kvhost run` uses.
package wasmhost
