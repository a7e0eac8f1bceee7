// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// conjure bridges a text editor to one or more running REPL servers.
// It reads editor requests from stdin, routes evaluation and
// documentation requests to the REPL connection whose match rule fits
// the source file's path, and writes everything the REPLs print
// (plus its own status lines) to stdout and an optional log file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/conjure/editor"
	"github.com/bureau-foundation/conjure/lib/config"
	"github.com/bureau-foundation/conjure/lib/version"
	"github.com/bureau-foundation/conjure/logview"
	"github.com/bureau-foundation/conjure/pool"
	"github.com/bureau-foundation/conjure/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the command-line values that override the config file.
type flags struct {
	configPath  string
	wire        string
	logFile     string
	replace     bool
	verbose     bool
	help        bool
	showVersion bool
}

func newFlagSet(values *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("conjure", pflag.ContinueOnError)
	flagSet.StringVar(&values.configPath, "config", "", "path to config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&values.wire, "wire", "", "editor request encoding: json or cbor")
	flagSet.StringVar(&values.logFile, "log-file", "", "log view path (overrides log_file)")
	flagSet.BoolVar(&values.replace, "replace", false, "replace a live connection when its key is reused")
	flagSet.BoolVarP(&values.verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVarP(&values.help, "help", "h", false, "show help")
	flagSet.BoolVar(&values.showVersion, "version", false, "print version information and exit")
	return flagSet
}

func run() error {
	var values flags
	flagSet := newFlagSet(&values)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if values.help {
		printHelp(flagSet)
		return nil
	}
	if values.showVersion {
		version.Print(os.Stdout, "conjure")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(flagSet, values)
	if err != nil {
		return err
	}

	logger := newLogger(values.verbose)
	slog.SetDefault(logger)

	wire, err := editor.ParseWire(cfg.Wire)
	if err != nil {
		return err
	}
	poolOptions, err := newPoolOptions(cfg)
	if err != nil {
		return err
	}

	view := logview.New(logview.Options{
		Output:  os.Stdout,
		LogFile: cfg.LogFile,
		Color:   term.IsTerminal(int(os.Stdout.Fd())),
		Logger:  logger,
	})
	defer view.Close()

	poolOptions.Output, poolOptions.Closed = system.BackendHandlers(view)
	poolOptions.Logger = logger
	registry := pool.New(poolOptions)
	defer registry.Close()

	dispatcher := system.New(registry, view, system.Options{
		Tag:    cfg.Tag,
		Logger: logger,
	})

	queue := editor.NewQueue()
	for _, result := range startupResults(cfg.Connections) {
		queue.Push(result)
	}

	server := &editor.Server{
		Reader: os.Stdin,
		Wire:   wire,
		Logger: logger,
	}
	go func() {
		if err := server.Serve(queue); err != nil {
			logger.Error("reading editor requests failed", "error", err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		for received := range signals {
			logger.Info("received signal, quitting", "signal", received.String())
			queue.PushEvent(editor.Quit{})
		}
	}()

	logger.Info("conjure started",
		"version", version.Info(),
		"wire", string(wire),
		"log_file", cfg.LogFile,
		"startup_connections", len(cfg.Connections),
	)

	return dispatcher.Run(context.Background(), queue)
}

// loadConfig loads the config file (or the defaults), applies flag
// overrides, and validates the result.
func loadConfig(flagSet *pflag.FlagSet, values flags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if values.configPath != "" {
		cfg, err = config.LoadFile(values.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("wire") {
		cfg.Wire = values.wire
	}
	if flagSet.Changed("log-file") {
		cfg.LogFile = values.logFile
	}
	if flagSet.Changed("replace") {
		cfg.Pool.ReplaceOnReconnect = values.replace
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newPoolOptions(cfg *config.Config) (pool.Options, error) {
	dialTimeout, err := cfg.DialTimeout()
	if err != nil {
		return pool.Options{}, err
	}
	writeTimeout, err := cfg.WriteTimeout()
	if err != nil {
		return pool.Options{}, err
	}
	return pool.Options{
		DialTimeout:        dialTimeout,
		WriteTimeout:       writeTimeout,
		ReplaceOnReconnect: cfg.Pool.ReplaceOnReconnect,
		Prelude:            cfg.Pool.Prelude,
		DocTemplate:        cfg.Pool.DocTemplate,
	}, nil
}

// startupResults turns the configured connections into connect
// requests, validated exactly as if the editor had sent them.
func startupResults(connections []config.ConnectionConfig) []editor.Result {
	results := make([]editor.Result, 0, len(connections))
	for _, connection := range connections {
		request := editor.Request{
			Command: editor.CommandConnect,
			Key:     connection.Key,
			Address: connection.Address,
			Match:   connection.Match,
		}
		event, err := request.Event()
		results = append(results, editor.Result{Event: event, Err: err})
	}
	return results
}

// newLogger writes to stderr, since stdout carries the log view. The
// text handler is used on a terminal and the JSON handler otherwise.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `conjure - bridge an editor to REPL servers

Reads one request per line from stdin (JSON by default, or a CBOR
sequence with --wire cbor) and writes REPL output and status lines to
stdout.

Usage:
  conjure [flags]

Requests:
  {"command":"connect","key":"app","address":"127.0.0.1:5555","match":"\\.clj$"}
  {"command":"eval","code":"(+ 1 2)","path":"/src/app/core.clj"}
  {"command":"doc","name":"map","path":"/src/app/core.clj"}
  {"command":"disconnect","key":"app"}
  {"command":"list"}
  {"command":"show-log"}
  {"command":"quit"}

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
