package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wippyai/kvhost/dump"
	"github.com/wippyai/kvhost/store"
	"github.com/wippyai/kvhost/wasmhost"
)

type cli struct {
	dbPath string
	opts   *store.Options
	hex    bool
	out    io.Writer
}

func (c *cli) dispatch(cmd string, args []string) error {
	switch cmd {
	case "get":
		return c.withDB(args, 1, c.get)
	case "put":
		return c.withDB(args, 2, c.put)
	case "delete":
		return c.withDB(args, 1, c.del)
	case "exists":
		return c.withDB(args, 1, c.exists)
	case "scan":
		return c.scan(args)
	case "destroy":
		if err := c.needDB(); err != nil {
			return err
		}
		return store.Destroy(c.dbPath, c.opts)
	case "dump":
		return c.dump(args)
	case "load":
		return c.load(args)
	case "run":
		return c.run(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) needDB() error {
	if c.dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	return nil
}

func (c *cli) open() (*store.DB, error) {
	if err := c.needDB(); err != nil {
		return nil, err
	}
	return store.Open(c.dbPath, c.opts)
}

// withDB decodes want positional arguments and runs fn against an open store.
func (c *cli) withDB(args []string, want int, fn func(*store.DB, [][]byte) error) error {
	if len(args) != want {
		return fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	decoded := make([][]byte, len(args))
	for i, a := range args {
		b, err := c.decode(a)
		if err != nil {
			return err
		}
		decoded[i] = b
	}
	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, decoded)
}

func (c *cli) decode(s string) ([]byte, error) {
	if !c.hex {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", s, err)
	}
	return b, nil
}

func (c *cli) encode(b []byte) string {
	if c.hex {
		return hex.EncodeToString(b)
	}
	return display(b)
}

func (c *cli) get(db *store.DB, args [][]byte) error {
	v, err := db.Get(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, c.encode(v))
	return err
}

func (c *cli) put(db *store.DB, args [][]byte) error {
	return db.Put(args[0], args[1])
}

func (c *cli) del(db *store.DB, args [][]byte) error {
	return db.Delete(args[0])
}

func (c *cli) exists(db *store.DB, args [][]byte) error {
	ok, err := db.Exists(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, ok)
	return err
}

func (c *cli) scan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	var (
		from  = fs.String("from", "", "First key (inclusive)")
		to    = fs.String("to", "", "Last key (exclusive)")
		limit = fs.Int("limit", 0, "Maximum entries (0 for all)")
		asHex = fs.Bool("hex", false, "Print keys and values as hex")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *asHex {
		c.hex = true
	}
	fromKey, err := c.decode(*from)
	if err != nil {
		return err
	}
	toKey, err := c.decode(*to)
	if err != nil {
		return err
	}

	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	cur, err := db.NewCursor()
	if err != nil {
		return err
	}
	defer cur.Close()

	if len(fromKey) > 0 {
		err = cur.Seek(fromKey)
	} else {
		err = cur.SeekToFirst()
	}
	for n := 0; err == nil && (*limit == 0 || n < *limit); n++ {
		var ok bool
		if ok, err = cur.IsValid(); err != nil || !ok {
			break
		}
		var k, v []byte
		if k, err = cur.Key(); err != nil {
			break
		}
		if len(toKey) > 0 && bytes.Compare(k, toKey) >= 0 {
			break
		}
		if v, err = cur.Value(); err != nil {
			break
		}
		fmt.Fprintf(c.out, "%s\t%s\n", c.encode(k), c.encode(v))
		err = cur.Next()
	}
	return err
}

func (c *cli) dump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	var (
		out   = fs.String("out", "", "Output file (- for stdout)")
		codec = fs.String("codec", "snappy", "Block codec (none, snappy, zstd, lz4)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("-out is required")
	}
	kind, err := dump.ParseCodec(*codec)
	if err != nil {
		return err
	}
	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	w := c.out
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	n, err := dump.Export(db, w, kind)
	if err != nil {
		return err
	}
	if *out != "-" {
		fmt.Fprintf(c.out, "dumped %d entries to %s (%s)\n", n, *out, kind)
	}
	return nil
}

func (c *cli) load(args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	var (
		in    = fs.String("in", "", "Input file (- for stdin)")
		batch = fs.Int("batch", dump.DefaultBatchSize, "Entries per atomic write")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	var r io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	n, err := dump.Import(db, r, *batch)
	if err != nil {
		return fmt.Errorf("loaded %d entries before: %w", n, err)
	}
	fmt.Fprintf(c.out, "loaded %d entries\n", n)
	return nil
}

func (c *cli) run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var (
		wasmFile = fs.String("wasm", "", "Path to core wasm module")
		funcName = fs.String("func", "", "Function to call (optional)")
		root     = fs.String("root", ".", "Directory guest store paths resolve under")
		envVars  = fs.String("env", "", "Environment variables (KEY=VAL,KEY2=VAL2)")
		cliArgs  = fs.String("argv", "", "CLI arguments (comma-separated)")
		stdin    = fs.String("stdin", "", "Stdin data")
		handles  = fs.Int("max-handles", 0, "Cap on live guest handles (0 for no cap)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *wasmFile == "" {
		return fmt.Errorf("-wasm is required")
	}
	data, err := os.ReadFile(*wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	cfg := wasmhost.RunConfig{
		Host: wasmhost.Config{
			Root:     *root,
			Registry: registryOptions(c.opts, *handles),
		},
		Func:   *funcName,
		Env:    map[string]string{},
		Stdin:  strings.NewReader(*stdin),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if *envVars != "" {
		for _, kv := range strings.Split(*envVars, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				cfg.Env[parts[0]] = parts[1]
			}
		}
	}
	if *cliArgs != "" {
		cfg.Args = strings.Split(*cliArgs, ",")
	}

	res, err := wasmhost.Run(context.Background(), data, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Called %s\n", res.Func)
	if len(res.Results) > 0 {
		fmt.Fprintf(c.out, "Result: %v\n", res.Results)
	}
	if l := res.Leaked; l.Stores+l.Cursors+l.Batches > 0 {
		fmt.Fprintf(c.out, "Released on exit: %d store(s), %d cursor(s), %d batch(es)\n",
			l.Stores, l.Cursors, l.Batches)
	}
	return nil
}
