// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/yourbase/confkit/envvar"
	"github.com/yourbase/confkit/export"
	"github.com/yourbase/confkit/ini"
	"github.com/yourbase/confkit/wsconf"
	"zombiezen.com/go/log"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"fmt":    cmdFmt,
	"get":    cmdGet,
	"set":    cmdSet,
	"encode": cmdEncode,
	"decode": cmdDecode,
	"export": cmdExport,
	"import": cmdImport,
	"serve":  cmdServe,
	"fetch":  cmdFetch,
}

// newFlagSet returns a flag set for a subcommand that reports errors to
// the app's stderr.
func (a *app) newFlagSet(name, usage string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(a.stderr)
	f.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: confkit %s %s\n", name, usage)
		f.PrintDefaults()
	}
	return f
}

// parseArgs parses the subcommand's flags and checks that exactly n
// positional arguments remain.
func parseArgs(f *flag.FlagSet, args []string, n int) error {
	if err := f.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &exitError{code: 2, msg: err.Error()}
	}
	if f.NArg() != n {
		f.Usage()
		return usageErrorf("%s: want %d arguments, got %d", f.Name(), n, f.NArg())
	}
	return nil
}

// load parses the text document at path. A path of "-" reads standard input.
// Environment overrides are applied when overrides is true.
func (a *app) load(ctx context.Context, path string, overrides bool) (*ini.Configuration, error) {
	var cfg *ini.Configuration
	var err error
	if path == "-" {
		cfg, err = ini.Parse(a.stdin, a.opts)
		if err != nil {
			err = fmt.Errorf("stdin: %w", err)
		}
	} else {
		cfg, err = ini.ParseFile(path, a.opts)
	}
	if err != nil {
		return nil, err
	}
	if overrides {
		if n := envvar.Apply(cfg, overridePrefix, nil); n > 0 {
			log.Debugf(ctx, "Applied %d override(s) from environment to %s", n, path)
		}
	}
	return cfg, nil
}

func cmdFmt(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("fmt", "[-w] FILE")
	write := f.Bool("w", false, "write result to FILE instead of stdout")
	if err := parseArgs(f, args, 1); err != nil {
		return err
	}
	path := f.Arg(0)
	if *write && path == "-" {
		return usageErrorf("fmt: cannot use -w with standard input")
	}
	cfg, err := a.load(ctx, path, false)
	if err != nil {
		return err
	}
	if *write {
		if err := cfg.SaveFile(path, a.opts); err != nil {
			return err
		}
		log.Infof(ctx, "Formatted %s", path)
		return nil
	}
	return cfg.Write(a.stdout, a.opts)
}

func cmdGet(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("get", "FILE SECTION SETTING")
	if err := parseArgs(f, args, 3); err != nil {
		return err
	}
	cfg, err := a.load(ctx, f.Arg(0), true)
	if err != nil {
		return err
	}
	section, err := cfg.Get(f.Arg(1))
	if err != nil {
		return err
	}
	setting, err := section.Get(f.Arg(2))
	if err != nil {
		return fmt.Errorf("section %q: %w", section.Name(), err)
	}
	value := setting.Value()
	if v, ok := setting.MultilineValue(); ok {
		value = v
	}
	_, err = fmt.Fprintln(a.stdout, value)
	return err
}

func cmdSet(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("set", "FILE SECTION SETTING VALUE")
	if err := parseArgs(f, args, 4); err != nil {
		return err
	}
	path := f.Arg(0)
	if path == "-" {
		return usageErrorf("set: cannot modify standard input")
	}
	if f.Arg(1) == "" || f.Arg(2) == "" {
		return usageErrorf("set: section and setting names must not be empty")
	}
	cfg, err := a.load(ctx, path, false)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		log.Infof(ctx, "Creating %s", path)
		cfg = ini.New()
	}
	setting := cfg.Section(f.Arg(1)).Setting(f.Arg(2))
	setting.SetValue(f.Arg(3))
	return cfg.SaveFile(path, a.opts)
}

func cmdEncode(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("encode", "IN OUT")
	if err := parseArgs(f, args, 2); err != nil {
		return err
	}
	cfg, err := a.load(ctx, f.Arg(0), false)
	if err != nil {
		return err
	}
	if f.Arg(1) == "-" {
		return cfg.EncodeBinary(a.stdout, a.opts)
	}
	if err := cfg.SaveBinaryFile(f.Arg(1), a.opts); err != nil {
		return err
	}
	log.Debugf(ctx, "Encoded %d sections to %s", cfg.Len(), f.Arg(1))
	return nil
}

func cmdDecode(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("decode", "IN")
	if err := parseArgs(f, args, 1); err != nil {
		return err
	}
	var cfg *ini.Configuration
	var err error
	if f.Arg(0) == "-" {
		cfg, err = ini.DecodeBinary(a.stdin)
	} else {
		cfg, err = ini.ParseBinaryFile(f.Arg(0))
	}
	if err != nil {
		return err
	}
	return cfg.Write(a.stdout, a.opts)
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("export", "[-format toml|yaml|json] FILE")
	format := f.String("format", "toml", "output `format`: toml, yaml or json")
	if err := parseArgs(f, args, 1); err != nil {
		return err
	}
	var write func(io.Writer, *ini.Configuration, *ini.Options) error
	switch *format {
	case "toml":
		write = export.WriteTOML
	case "yaml":
		write = export.WriteYAML
	case "json":
		write = export.WriteJSON
	default:
		return usageErrorf("export: unknown format %q", *format)
	}
	cfg, err := a.load(ctx, f.Arg(0), true)
	if err != nil {
		return err
	}
	return write(a.stdout, cfg, a.opts)
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("import", "[-format toml|yaml] FILE")
	format := f.String("format", "toml", "input `format`: toml or yaml")
	if err := parseArgs(f, args, 1); err != nil {
		return err
	}
	var read func(io.Reader, *ini.Options) (*ini.Configuration, error)
	switch *format {
	case "toml":
		read = export.FromTOML
	case "yaml":
		read = export.FromYAML
	default:
		return usageErrorf("import: unknown format %q", *format)
	}
	r := a.stdin
	if path := f.Arg(0); path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}
	cfg, err := read(r, a.opts)
	if err != nil {
		return fmt.Errorf("import %s: %w", f.Arg(0), err)
	}
	return cfg.Write(a.stdout, a.opts)
}

// serveHandler returns a handler that serves the document at path. The file
// is read again for every connection, so edits are picked up without a
// restart.
func (a *app) serveHandler(path string) *wsconf.Handler {
	return &wsconf.Handler{
		Config: func(r *http.Request) (*ini.Configuration, error) {
			return a.load(r.Context(), path, true)
		},
		Options: a.opts,
	}
}

func cmdServe(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("serve", "[-addr ADDR] FILE")
	addr := f.String("addr", "localhost:8080", "`address` to listen on")
	if err := parseArgs(f, args, 1); err != nil {
		return err
	}
	path := f.Arg(0)
	if path == "-" {
		return usageErrorf("serve: cannot serve standard input")
	}
	// Fail early on a bad document.
	if _, err := a.load(ctx, path, true); err != nil {
		return err
	}
	l, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:     a.serveHandler(path),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	idleConnsClosed := make(chan struct{})
	go func() {
		defer close(idleConnsClosed)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf(ctx, "Shutting down: %v", err)
		}
	}()
	log.Infof(ctx, "Serving %s on ws://%s/", path, l.Addr())
	if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-idleConnsClosed
	return nil
}

func cmdFetch(ctx context.Context, a *app, args []string) error {
	f := a.newFlagSet("fetch", "[-timeout DURATION] URL")
	timeout := f.Duration("timeout", 30*time.Second, "give up after `duration`; 0 retries until interrupted")
	if err := parseArgs(f, args, 1); err != nil {
		return err
	}
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	cfg, err := wsconf.Fetch(ctx, f.Arg(0), nil, a.opts)
	if err != nil {
		return err
	}
	return cfg.Write(a.stdout, a.opts)
}
