package wasmhost

import (
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/kvhost/errors"
)

// Guest ABI function names.
const (
	FnStoreOpen         = "store-open"
	FnStoreClose        = "store-close"
	FnStoreGet          = "store-get"
	FnStorePut          = "store-put"
	FnStoreDelete       = "store-delete"
	FnStoreExists       = "store-exists"
	FnStoreNewCursor    = "store-new-cursor"
	FnStoreWrite        = "store-write"
	FnStoreDestroy      = "store-destroy"
	FnCursorClose       = "cursor-close"
	FnCursorSeekToFirst = "cursor-seek-to-first"
	FnCursorSeek        = "cursor-seek"
	FnCursorIsValid     = "cursor-is-valid"
	FnCursorKey         = "cursor-key"
	FnCursorValue       = "cursor-value"
	FnCursorNext        = "cursor-next"
	FnBatchCreate       = "batch-create"
	FnBatchPut          = "batch-put"
	FnBatchDelete       = "batch-delete"
	FnBatchClear        = "batch-clear"
	FnBatchFree         = "batch-free"
	FnLastError         = "last-error"
)

type param struct {
	name string
	typ  wit.Type
}

// signature describes one import. Every import returns a status.
type signature struct {
	name   string
	params []param
}

var (
	handleType = wit.U32{}
	outType    = wit.U32{}
	bytesType  = &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}
	pathType   = wit.String{}
)

// statusType is the enum every import returns.
var statusType = func() wit.Type {
	names := errors.StatusNames()
	cases := make([]wit.EnumCase, len(names))
	for i, n := range names {
		cases[i] = wit.EnumCase{Name: n}
	}
	return &wit.TypeDef{Kind: &wit.Enum{Cases: cases}}
}()

func handleParam(name string) param { return param{name, handleType} }
func outParam(name string) param    { return param{name, outType} }
func bytesParam(name string) param  { return param{name, bytesType} }

var signatures = []signature{
	{FnStoreOpen, []param{{"path", pathType}, outParam("out-handle")}},
	{FnStoreClose, []param{handleParam("store")}},
	{FnStoreGet, []param{handleParam("store"), bytesParam("key"), outParam("out-buf")}},
	{FnStorePut, []param{handleParam("store"), bytesParam("key"), bytesParam("value")}},
	{FnStoreDelete, []param{handleParam("store"), bytesParam("key")}},
	{FnStoreExists, []param{handleParam("store"), bytesParam("key"), outParam("out-bool")}},
	{FnStoreNewCursor, []param{handleParam("store"), outParam("out-handle")}},
	{FnStoreWrite, []param{handleParam("store"), handleParam("batch")}},
	{FnStoreDestroy, []param{{"path", pathType}}},
	{FnCursorClose, []param{handleParam("cursor")}},
	{FnCursorSeekToFirst, []param{handleParam("cursor")}},
	{FnCursorSeek, []param{handleParam("cursor"), bytesParam("key")}},
	{FnCursorIsValid, []param{handleParam("cursor"), outParam("out-bool")}},
	{FnCursorKey, []param{handleParam("cursor"), outParam("out-buf")}},
	{FnCursorValue, []param{handleParam("cursor"), outParam("out-buf")}},
	{FnCursorNext, []param{handleParam("cursor")}},
	{FnBatchCreate, []param{outParam("out-handle")}},
	{FnBatchPut, []param{handleParam("batch"), bytesParam("key"), bytesParam("value")}},
	{FnBatchDelete, []param{handleParam("batch"), bytesParam("key")}},
	{FnBatchClear, []param{handleParam("batch")}},
	{FnBatchFree, []param{handleParam("batch")}},
	{FnLastError, []param{outParam("out-buf")}},
}

// coreSignature is a signature lowered to core wasm value types.
type coreSignature struct {
	params  []api.ValueType
	results []api.ValueType
	names   []string
}

var (
	coreOnce sync.Once
	coreSigs map[string]coreSignature
)

func lowered() map[string]coreSignature {
	coreOnce.Do(func() {
		coreSigs = make(map[string]coreSignature, len(signatures))
		for _, sig := range signatures {
			var cs coreSignature
			for _, p := range sig.params {
				flat := flatten(p.typ)
				cs.params = append(cs.params, flat...)
				if len(flat) == 2 {
					cs.names = append(cs.names, p.name+"-ptr", p.name+"-len")
				} else {
					cs.names = append(cs.names, p.name)
				}
			}
			cs.results = flatten(statusType)
			coreSigs[sig.name] = cs
		}
	})
	return coreSigs
}

func flatten(t wit.Type) []api.ValueType {
	switch t := t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return []api.ValueType{api.ValueTypeI32}
	case wit.U64, wit.S64:
		return []api.ValueType{api.ValueTypeI64}
	case wit.F32:
		return []api.ValueType{api.ValueTypeF32}
	case wit.F64:
		return []api.ValueType{api.ValueTypeF64}
	case wit.String:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	case *wit.TypeDef:
		switch kind := t.Kind.(type) {
		case *wit.List:
			return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
		case *wit.Enum:
			return []api.ValueType{api.ValueTypeI32}
		case wit.Type:
			return flatten(kind)
		}
	}
	return []api.ValueType{api.ValueTypeI32}
}
