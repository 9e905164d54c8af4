// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// confkit reads, rewrites and converts INI configuration files.
//
// Usage:
//
//	confkit [options] COMMAND [ARGS]
//
// Run confkit -help for the list of commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"unicode/utf8"

	"github.com/yourbase/confkit/envvar"
	"github.com/yourbase/confkit/ini"
	"zombiezen.com/go/log"
)

// Environment variables consulted for defaults.
const (
	commentCharEnv = "CONFKIT_COMMENT_CHAR"
	arraySepEnv    = "CONFKIT_ARRAY_SEP"
	debugEnv       = "CONFKIT_DEBUG"

	// overridePrefix starts the names of variables that override settings
	// of loaded documents. See envvar.Apply.
	overridePrefix = "CONFKIT_SET_"
)

// exitError is an error that carries a process exit code.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...interface{}) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

// app holds the state shared by all commands.
type app struct {
	opts   *ini.Options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	logFilter := &log.LevelFilter{
		Min:    log.Info,
		Output: log.New(os.Stderr, "confkit: ", log.ShowLevel, nil),
	}
	log.SetDefault(logFilter)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, logFilter, os.Stdin, os.Stdout, os.Stderr, os.Args[1:])
	cancel()
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, "confkit:", err)
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	os.Exit(1)
}

// run executes the command line in args. The -debug flag lowers logFilter's
// minimum level; logFilter may be nil.
func run(ctx context.Context, logFilter *log.LevelFilter, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("confkit", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, `confkit - read, rewrite and convert INI configuration files.

Usage:
  confkit [options] COMMAND [ARGS]

Commands:
  fmt [-w] FILE                        normalize a document
  get FILE SECTION SETTING             print a setting's value
  set FILE SECTION SETTING VALUE       change or add a setting
  encode IN OUT                        convert text to binary
  decode IN                            convert binary to text
  export [-format F] FILE              convert to toml, yaml or json
  import [-format F] FILE              convert from toml or yaml
  serve [-addr ADDR] FILE              serve a document over WebSocket
  fetch [-timeout D] URL               print a document served over WebSocket

Settings can be overridden with environment variables named
`+overridePrefix+`SECTION__SETTING.

Options:
`)
		flagSet.PrintDefaults()
	}
	commentChar := flagSet.String("comment-char", envvar.Get(commentCharEnv, string(ini.DefaultCommentChar)), "preferred comment `character` (env "+commentCharEnv+")")
	arraySep := flagSet.String("array-sep", envvar.Get(arraySepEnv, string(ini.DefaultArraySeparator)), "array element `separator` (env "+arraySepEnv+")")
	debug := flagSet.Bool("debug", envvar.Bool(debugEnv), "show debug logs (env "+debugEnv+")")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &exitError{code: 2, msg: err.Error()}
	}
	if *debug && logFilter != nil {
		logFilter.Min = log.Debug
	}

	opts := ini.DefaultOptions()
	c, err := singleRune("comment-char", *commentChar)
	if err != nil {
		return err
	}
	if !containsRune(opts.CommentChars, c) {
		if err := opts.SetCommentChars(append([]rune{c}, opts.CommentChars...)); err != nil {
			return usageErrorf("-comment-char: %v", err)
		}
	}
	if err := opts.SetPreferredCommentChar(c); err != nil {
		return usageErrorf("-comment-char: %v", err)
	}
	sep, err := singleRune("array-sep", *arraySep)
	if err != nil {
		return err
	}
	if err := opts.SetArraySeparator(sep); err != nil {
		return usageErrorf("-array-sep: %v", err)
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return usageErrorf("missing command")
	}
	a := &app{
		opts:   opts,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	name, cmdArgs := flagSet.Arg(0), flagSet.Args()[1:]
	cmd := commands[name]
	if cmd == nil {
		return usageErrorf("unknown command %q", name)
	}
	log.Debugf(ctx, "Running %s with %q", name, cmdArgs)
	return cmd(ctx, a, cmdArgs)
}

func singleRune(flagName, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, usageErrorf("-%s must be a single character (got %q)", flagName, s)
	}
	c, _ := utf8.DecodeRuneInString(s)
	return c, nil
}

func containsRune(chars []rune, c rune) bool {
	for _, r := range chars {
		if r == c {
			return true
		}
	}
	return false
}
