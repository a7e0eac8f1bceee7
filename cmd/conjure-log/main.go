// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// conjure-log is an interactive pager for the conjure log view. It
// follows the log file as the bridge appends to it.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/conjure/lib/config"
	"github.com/bureau-foundation/conjure/lib/version"
	"github.com/bureau-foundation/conjure/logview"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the command-line values.
type flags struct {
	filePath    string
	configPath  string
	interval    time.Duration
	help        bool
	showVersion bool
}

func newFlagSet(values *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("conjure-log", pflag.ContinueOnError)
	flagSet.StringVar(&values.filePath, "file", "", "log file to view (default: log_file from the config)")
	flagSet.StringVar(&values.configPath, "config", "", "path to config file (default: $"+config.EnvironmentVariable+")")
	flagSet.DurationVar(&values.interval, "interval", logview.DefaultPollInterval, "how often to check the file for changes")
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
		version.Print(os.Stdout, "conjure-log")
		return nil
	}

	filePath := values.filePath
	if filePath == "" {
		path, err := configuredLogFile(values.configPath)
		if err != nil {
			return err
		}
		filePath = path
	}
	if filePath == "" {
		return fmt.Errorf("no log file: pass --file or set log_file in the config")
	}

	program := tea.NewProgram(logview.NewViewer(filePath, values.interval), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func configuredLogFile(configPath string) (string, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", err
	}
	return cfg.LogFile, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `conjure-log - follow the conjure log view

Keys:
  k/up, j/down     scroll one line
  pgup, pgdown     scroll one page
  g, G             jump to top or bottom
  f                toggle follow mode
  q, ctrl+c        quit

Usage:
  conjure-log [flags]

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
