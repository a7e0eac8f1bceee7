// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// ErrNoLogFile is returned by DisplayOrCreateLogView when the View has
// no log file path.
var ErrNoLogFile = errors.New("no log file configured")

// DefaultHistoryLimit bounds the in-memory history when
// Options.HistoryLimit is zero.
const DefaultHistoryLimit = 10000

// errorTag labels error lines.
const errorTag = "!"

// Options configures a View.
type Options struct {
	// Output receives every rendered line. Nil discards output.
	Output io.Writer

	// LogFile is the log view's path. Empty disables the log view.
	LogFile string

	// Color enables ANSI styling and syntax highlighting on Output.
	// The history and the log file are always plain text.
	Color bool

	// HistoryLimit caps the number of lines kept in memory.
	HistoryLimit int

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// View is the dispatcher's sink. It is safe for concurrent use.
type View struct {
	mutex sync.Mutex

	output       io.Writer
	palette      palette
	color        bool
	logFilePath  string
	logFile      *os.File
	history      []string
	historyLimit int
	logger       *slog.Logger
}

// New returns a View. The log file is not touched until the first
// DisplayOrCreateLogView.
func New(options Options) *View {
	output := options.Output
	if output == nil {
		output = io.Discard
	}

	renderer := lipgloss.NewRenderer(output)
	if options.Color {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	historyLimit := options.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &View{
		output:       output,
		palette:      newPalette(renderer),
		color:        options.Color,
		logFilePath:  options.LogFile,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// WriteLine writes text under tag.
func (v *View) WriteLine(tag, text string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.writeLocked(v.palette.tag.Render(tag) + " " + v.palette.text.Render(text))
}

// WriteLines writes each line under tag. The lines are written as one
// block, so output from other goroutines cannot interleave with them.
func (v *View) WriteLines(tag string, lines []string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	renderedTag := v.palette.tag.Render(tag)
	for _, line := range lines {
		v.writeLocked(renderedTag + " " + v.palette.text.Render(line))
	}
}

// WriteErrorLine writes text as an error.
func (v *View) WriteErrorLine(text string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.writeLocked(v.palette.errorTag.Render(errorTag) + " " + v.palette.errorText.Render(text))
}

// WriteEvalInput echoes code sent for path, one line per code line,
// tagged with the file's base name.
func (v *View) WriteEvalInput(path, code string) {
	body := code
	if v.color {
		body = highlight(path, code)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()
	renderedTag := v.palette.tag.Render(filepath.Base(path))
	for line := range strings.SplitSeq(strings.TrimRight(body, "\n"), "\n") {
		v.writeLocked(renderedTag + " " + line)
	}
}

// DisplayOrCreateLogView creates the log file on first use, replaying
// the history into it. Every call announces the file's path.
func (v *View) DisplayOrCreateLogView() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.logFilePath == "" {
		return ErrNoLogFile
	}

	if v.logFile == nil {
		if err := os.MkdirAll(filepath.Dir(v.logFilePath), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(v.logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		for _, line := range v.history {
			if _, err := fmt.Fprintln(file, line); err != nil {
				file.Close()
				return fmt.Errorf("writing log file: %w", err)
			}
		}
		v.logFile = file
		v.logger.Info("log view created", "path", v.logFilePath, "replayed_lines", len(v.history))
	}

	v.writeLocked(v.palette.tag.Render("Log") + " " + v.palette.text.Render(";; "+v.logFilePath))
	return nil
}

// History returns a copy of the plain-text lines kept in memory,
// oldest first.
func (v *View) History() []string {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return slices.Clone(v.history)
}

// Close closes the log file if one was created.
func (v *View) Close() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.logFile == nil {
		return nil
	}
	err := v.logFile.Close()
	v.logFile = nil
	return err
}

// writeLocked emits one rendered line. Caller holds mutex.
func (v *View) writeLocked(rendered string) {
	if _, err := fmt.Fprintln(v.output, rendered); err != nil {
		v.logger.Warn("writing output failed", "error", err)
	}

	plain := ansi.Strip(rendered)
	v.history = append(v.history, plain)
	if overflow := len(v.history) - v.historyLimit; overflow > 0 {
		v.history = slices.Delete(v.history, 0, overflow)
	}

	if v.logFile != nil {
		if _, err := fmt.Fprintln(v.logFile, plain); err != nil {
			v.logger.Warn("writing log file failed", "path", v.logFilePath, "error", err)
		}
	}
}
