package wasmhost

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/kvhost"
	"github.com/wippyai/kvhost/binding"
	"github.com/wippyai/kvhost/errors"
)

// DefaultModuleName is the import module guests link against.
const DefaultModuleName = "kv"

// Config configures a Host.
type Config struct {
	// Root confines guest store paths. Empty means the working directory.
	Root string

	// ModuleName is the host module name. Empty means DefaultModuleName.
	ModuleName string

	// Registry configures the host's handle registry.
	Registry *binding.Options
}

// Host exposes a binding.Registry to wasm guests as a host module. Each Host
// owns its registry; Close releases every guest-held handle.
type Host struct {
	reg  *binding.Registry
	root string
	name string
	log  *zap.Logger

	mu      sync.Mutex
	lastErr string
	mod     api.Module
}

// New creates a Host without registering it with a runtime.
func New(cfg Config) (*Host, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Failure(errors.PhaseHost, "invalid root", err)
	}
	name := cfg.ModuleName
	if name == "" {
		name = DefaultModuleName
	}
	return &Host{
		reg:  binding.NewRegistry(cfg.Registry),
		root: root,
		name: name,
		log:  Logger(),
	}, nil
}

// Instantiate creates a Host and registers its module with rt.
func Instantiate(ctx context.Context, rt wazero.Runtime, cfg Config) (*Host, error) {
	h, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := h.Register(ctx, rt); err != nil {
		_ = h.reg.Close()
		return nil, err
	}
	return h, nil
}

// Register instantiates the host module in rt.
func (h *Host) Register(ctx context.Context, rt wazero.Runtime) error {
	sigs := lowered()
	builder := rt.NewHostModuleBuilder(h.name)
	for _, sig := range signatures {
		fn, ok := handlers[sig.name]
		if !ok {
			return errors.Registration(h.name, sig.name, fmt.Errorf("no handler"))
		}
		cs := sigs[sig.name]
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.goFunc(fn), cs.params, cs.results).
			WithParameterNames(cs.names...).
			WithName(sig.name).
			Export(sig.name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return errors.Registration(h.name, "", err)
	}
	h.mu.Lock()
	h.mod = mod
	h.mu.Unlock()
	h.log.Debug("host module registered", zap.String("module", h.name), zap.String("root", h.root))
	return nil
}

// Registry returns the registry backing the host.
func (h *Host) Registry() *binding.Registry {
	return h.reg
}

// Root returns the directory guest paths resolve under.
func (h *Host) Root() string {
	return h.root
}

// LastError returns the message of the most recent non-ok status.
func (h *Host) LastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Close releases every handle and the host module.
func (h *Host) Close(ctx context.Context) error {
	err := h.reg.Close()
	h.mu.Lock()
	mod := h.mod
	h.mod = nil
	h.mu.Unlock()
	if mod != nil {
		if cerr := mod.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (h *Host) goFunc(fn handler) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		c := &call{ctx: ctx, mod: mod}
		if mod != nil {
			c.mem = WrapMemory(mod.Memory())
		}
		h.invoke(c, fn, stack)
	}
}

// call carries the guest state one import invocation needs.
type call struct {
	ctx   context.Context
	mod   api.Module
	mem   kvhost.Memory
	alloc kvhost.Allocator
}

func (c *call) allocator() kvhost.Allocator {
	if c.alloc == nil && c.mod != nil {
		c.alloc = GuestAllocator(c.ctx, c.mod)
	}
	return c.alloc
}

type handler func(h *Host, c *call, stack []uint64) error

// invoke runs fn and stores its status in stack[0]. A panic in fn reports
// Failure.
func (h *Host) invoke(c *call, fn handler, stack []uint64) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Failure(errors.PhaseHost, "host call panicked", fmt.Errorf("%v", r))
				h.log.Error("host call panicked", zap.Any("panic", r))
			}
		}()
		if c.mem == nil {
			err = errors.Failure(errors.PhaseMarshal, "guest exports no memory", nil)
			return
		}
		err = fn(h, c, stack)
	}()

	status := errors.StatusOf(err)
	if err != nil {
		h.mu.Lock()
		h.lastErr = errors.MessageOf(err)
		h.mu.Unlock()
	}
	stack[0] = api.EncodeU32(uint32(status))
}

var handlers = map[string]handler{
	FnStoreOpen:         storeOpen,
	FnStoreClose:        storeClose,
	FnStoreGet:          storeGet,
	FnStorePut:          storePut,
	FnStoreDelete:       storeDelete,
	FnStoreExists:       storeExists,
	FnStoreNewCursor:    storeNewCursor,
	FnStoreWrite:        storeWrite,
	FnStoreDestroy:      storeDestroy,
	FnCursorClose:       cursorClose,
	FnCursorSeekToFirst: cursorSeekToFirst,
	FnCursorSeek:        cursorSeek,
	FnCursorIsValid:     cursorIsValid,
	FnCursorKey:         cursorKey,
	FnCursorValue:       cursorValue,
	FnCursorNext:        cursorNext,
	FnBatchCreate:       batchCreate,
	FnBatchPut:          batchPut,
	FnBatchDelete:       batchDelete,
	FnBatchClear:        batchClear,
	FnBatchFree:         batchFree,
	FnLastError:         lastError,
}

func u32(v uint64) uint32 { return api.DecodeU32(v) }

func handle(v uint64) binding.Handle { return binding.Handle(api.DecodeU32(v)) }

// readBytes copies len bytes at ptr out of guest memory. A zero length
// yields an empty, non-nil slice.
func readBytes(c *call, ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	data, err := c.mem.Read(ptr, length)
	if err != nil {
		return nil, errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
			Value(ptr).
			Detail("read of %d bytes at %d out of bounds", length, ptr).
			Cause(err).
			Build()
	}
	return data, nil
}

// writeBytes copies data into a guest-allocated buffer and stores its
// (ptr, len) pair at out. Empty data is reported as (0, 0).
func writeBytes(c *call, out uint32, data []byte) error {
	var ptr uint32
	size := uint32(len(data))
	alloc := c.allocator()
	if size > 0 {
		if alloc == nil {
			return errors.New(errors.PhaseMarshal, errors.KindOutOfMemory).
				Detail("guest exports no allocator").
				Build()
		}
		p, err := alloc.Alloc(size, 1)
		if err != nil || p == 0 {
			oom := errors.OutOfMemory(errors.PhaseMarshal, size, 1)
			if err != nil {
				oom.Cause = err
			}
			return oom
		}
		if err := c.mem.Write(p, data); err != nil {
			alloc.Free(p, size, 1)
			return errors.OutOfBounds(errors.PhaseMarshal, p, size)
		}
		ptr = p
	}
	if err := writePair(c, out, ptr, size); err != nil {
		if ptr != 0 {
			alloc.Free(ptr, size, 1)
		}
		return err
	}
	return nil
}

func writePair(c *call, out, ptr, size uint32) error {
	if c.mem.WriteU32(out, ptr) != nil || c.mem.WriteU32(out+4, size) != nil {
		return errors.OutOfBounds(errors.PhaseMarshal, out, 8)
	}
	return nil
}

func writeHandle(c *call, out uint32, v binding.Handle) error {
	if err := c.mem.WriteU32(out, uint32(v)); err != nil {
		return errors.OutOfBounds(errors.PhaseMarshal, out, 4)
	}
	return nil
}

func writeBool(c *call, out uint32, v bool) error {
	var b uint8
	if v {
		b = 1
	}
	if err := c.mem.WriteU8(out, b); err != nil {
		return errors.OutOfBounds(errors.PhaseMarshal, out, 1)
	}
	return nil
}

// resolve maps a guest path under the host root. Absolute guest paths and
// ".." segments cannot leave the root.
func (h *Host) resolve(c *call, ptr, length uint32) (string, error) {
	raw, err := readBytes(c, ptr, length)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.InvalidInput(errors.PhaseOpen, "path must not be empty")
	}
	rel := filepath.Clean("/" + string(raw))
	if rel == "/" {
		return "", errors.InvalidInput(errors.PhaseOpen, "path must name a directory below the root")
	}
	return filepath.Join(h.root, rel), nil
}
