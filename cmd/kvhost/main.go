package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/kvhost/binding"
	"github.com/wippyai/kvhost/dump"
	"github.com/wippyai/kvhost/engine"
	"github.com/wippyai/kvhost/store"
	"github.com/wippyai/kvhost/wasmhost"
)

const usage = `Usage: kvhost -db <path> [-v] <command> [args]
       kvhost -db <path> -i  (interactive browser)

Commands:
  get <key>                      print the value under key
  put <key> <value>              store value under key
  delete <key>                   remove key
  exists <key>                   print true or false
  scan [-from k] [-to k] [-limit n] [-hex]
                                 list entries in key order
  destroy                        remove every file of the store
  dump -out <file> [-codec c]    export the store (none, snappy, zstd, lz4)
  load -in <file> [-batch n]     import a dump
  run -wasm <file> [-func name] [-root dir]
                                 run a guest against the kv host module
`

func main() {
	var (
		dbPath      = flag.String("db", "", "Path to the store directory")
		compression = flag.String("compression", "snappy", "Table compression for new stores (none, snappy, zstd)")
		cacheSize   = flag.Int64("cache", 0, "Block cache size in bytes (0 for the engine default)")
		noSync      = flag.Bool("nosync", false, "Do not sync writes to disk")
		hexKeys     = flag.Bool("hex", false, "Keys and values on the command line are hex encoded")
		verbose     = flag.Bool("v", false, "Development logging to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *verbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			setLoggers(log)
			defer log.Sync()
		}
	}

	comp, err := engine.ParseCompression(*compression)
	if err != nil {
		fail(err)
	}
	opts := &store.Options{
		Compression: comp,
		CacheSize:   *cacheSize,
		NoSync:      *noSync,
	}

	if *interactive {
		if *dbPath == "" {
			flag.Usage()
			os.Exit(1)
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fail(fmt.Errorf("interactive mode requires a terminal"))
		}
		if err := runInteractive(*dbPath, opts); err != nil {
			fail(err)
		}
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cli := &cli{dbPath: *dbPath, opts: opts, hex: *hexKeys, out: os.Stdout}
	if err := cli.dispatch(args[0], args[1:]); err != nil {
		fail(err)
	}
}

func setLoggers(log *zap.Logger) {
	engine.SetLogger(log.Named("engine"))
	store.SetLogger(log.Named("store"))
	binding.SetLogger(log.Named("binding"))
	wasmhost.SetLogger(log.Named("wasmhost"))
	dump.SetLogger(log.Named("dump"))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
