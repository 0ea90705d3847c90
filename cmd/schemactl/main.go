// schemactl inspects schema definitions and the envelopes that carry encoded
// values.
//
// Usage:
//
//	schemactl list        --schema FILE
//	schemactl fingerprint --schema FILE
//	schemactl diff        OLD NEW
//	schemactl wit         --schema FILE [--layout]
//	schemactl seal        --schema FILE --in PAYLOAD --out FRAME [--compression none|lz4|zstd]
//	schemactl inspect     FRAME [--schema FILE] [--bytes N]
//	schemactl browse      --schema FILE
//
// Every command accepts --config (default $WASM_SCHEMA_CONFIG) and
// --log-level.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-schema/codec"
	"github.com/wippyai/wasm-schema/config"
	"github.com/wippyai/wasm-schema/envelope"
	"github.com/wippyai/wasm-schema/mem"
)

type command struct {
	summary string
	flags   func(fs *pflag.FlagSet, o *options)
	run     func(a *app, args []string) error
}

type options struct {
	configPath  string
	logLevel    string
	schemaPath  string
	inPath      string
	outPath     string
	compression string
	dumpBytes   int
	layout      bool
}

type app struct {
	out    io.Writer
	cfg    *config.Config
	logger *zap.Logger
	opts   options
}

var commands = map[string]command{
	"list": {
		summary: "list the types and messages of a schema",
		flags:   schemaFlag,
		run:     runList,
	},
	"fingerprint": {
		summary: "print the content fingerprint of a schema",
		flags:   schemaFlag,
		run:     runFingerprint,
	},
	"diff": {
		summary: "compare two schema files by type",
		run:     runDiff,
	},
	"wit": {
		summary: "print the WIT declarations of a schema",
		flags: func(fs *pflag.FlagSet, o *options) {
			schemaFlag(fs, o)
			fs.BoolVar(&o.layout, "layout", false, "annotate each type with its canonical ABI size and alignment")
		},
		run: runWIT,
	},
	"seal": {
		summary: "wrap an encoded payload in an envelope",
		flags: func(fs *pflag.FlagSet, o *options) {
			schemaFlag(fs, o)
			fs.StringVar(&o.inPath, "in", "", "encoded payload to seal")
			fs.StringVar(&o.outPath, "out", "", "frame file to write")
			fs.StringVar(&o.compression, "compression", "", "none, lz4 or zstd (default from config)")
		},
		run: runSeal,
	},
	"inspect": {
		summary: "show an envelope header and dump its payload",
		flags: func(fs *pflag.FlagSet, o *options) {
			fs.StringVar(&o.schemaPath, "schema", "", "check the frame against this schema")
			fs.IntVar(&o.dumpBytes, "bytes", 256, "payload bytes to dump, 0 for all")
		},
		run: runInspect,
	},
	"browse": {
		summary: "browse a schema interactively",
		flags:   schemaFlag,
		run:     runBrowse,
	},
}

func schemaFlag(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.schemaPath, "schema", "s", "", "schema file (.yaml, .yml, .json, .jsonc or .cbor)")
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out)
		return nil
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	a := &app{out: out}
	fs := pflag.NewFlagSet("schemactl "+name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&a.opts.configPath, "config", "", "config file (default $"+config.EnvVar+")")
	fs.StringVar(&a.opts.logLevel, "log-level", "", "override the configured log level")
	if cmd.flags != nil {
		cmd.flags(fs, &a.opts)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if err := a.setup(); err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	return cmd.run(a, fs.Args())
}

func (a *app) setup() error {
	var err error
	if a.opts.configPath != "" {
		a.cfg, err = config.LoadFile(a.opts.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.opts.logLevel != "" {
		a.cfg.Log.Level = a.opts.logLevel
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	a.logger, err = a.cfg.Logger()
	if err != nil {
		return err
	}
	codec.SetLogger(a.logger.Named("codec"))
	mem.SetLogger(a.logger.Named("mem"))
	envelope.SetLogger(a.logger.Named("envelope"))
	return nil
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: schemactl <command> [flags]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-12s %s\n", name, commands[name].summary)
	}
	b.WriteString("\nRun 'schemactl <command> --help' for command flags.\n")
	fmt.Fprint(w, b.String())
}
