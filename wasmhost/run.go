package wasmhost

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/kvhost/binding"
)

// entryPoints are tried in order when RunConfig.Func is empty.
var entryPoints = []string{"_start", "run", "main"}

// RunConfig configures Run.
type RunConfig struct {
	Host Config

	// Func is the export to call. Empty picks the first of _start, run
	// and main, or the only exported function.
	Func string

	Args   []string
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult describes a finished guest call.
type RunResult struct {
	Func    string
	Results []uint64
	Exports []string

	// Leaked counts the handles the guest left open.
	Leaked binding.Stats
}

// Run instantiates a core wasm module against the kv host module and WASI,
// calls its entry point and releases everything the guest left open.
func Run(ctx context.Context, wasm []byte, cfg RunConfig) (*RunResult, error) {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := RegisterWASI(ctx, rt); err != nil {
		return nil, fmt.Errorf("register WASI: %w", err)
	}
	host, err := Instantiate(ctx, rt, cfg.Host)
	if err != nil {
		return nil, err
	}
	defer host.Close(ctx)

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	defer compiled.Close(ctx)

	exports := make([]string, 0, len(compiled.ExportedFunctions()))
	for name := range compiled.ExportedFunctions() {
		exports = append(exports, name)
	}
	sort.Strings(exports)

	funcName := cfg.Func
	if funcName == "" {
		funcName = pickEntry(exports)
		if funcName == "" {
			return nil, fmt.Errorf("no entry point among %v", exports)
		}
	}

	modCfg := wazero.NewModuleConfig().
		WithStartFunctions().
		WithArgs(append([]string{"guest"}, cfg.Args...)...)
	for k, v := range cfg.Env {
		modCfg = modCfg.WithEnv(k, v)
	}
	if cfg.Stdin != nil {
		modCfg = modCfg.WithStdin(cfg.Stdin)
	}
	if cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(cfg.Stderr)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return nil, fmt.Errorf("function %q not exported", funcName)
	}
	if n := len(fn.Definition().ParamTypes()); n != 0 {
		return nil, fmt.Errorf("function %q takes %d parameters, want 0", funcName, n)
	}

	Logger().Debug("calling guest", zap.String("func", funcName))
	results, err := fn.Call(ctx)
	if err != nil {
		var exit *sys.ExitError
		if !stderrors.As(err, &exit) || exit.ExitCode() != 0 {
			return nil, fmt.Errorf("call %s: %w", funcName, err)
		}
	}

	s := host.Registry().Stats()
	if s.Stores+s.Cursors+s.Batches > 0 {
		Logger().Warn("guest left handles open",
			zap.Int("stores", s.Stores),
			zap.Int("cursors", s.Cursors),
			zap.Int("batches", s.Batches))
	}
	return &RunResult{
		Func:    funcName,
		Results: results,
		Exports: exports,
		Leaked:  s,
	}, nil
}

func pickEntry(exports []string) string {
	for _, name := range entryPoints {
		for _, e := range exports {
			if e == name {
				return name
			}
		}
	}
	if len(exports) == 1 {
		return exports[0]
	}
	return ""
}
