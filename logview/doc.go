// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logview is conjure's log and error surface.
//
// [View] implements the dispatcher's sink. Every line is rendered to
// an output writer (the editor's end of the pipe, or a terminal) with
// lipgloss styling when color is enabled, and kept as plain text in a
// bounded in-memory history. The log view is a file: the first
// [View.DisplayOrCreateLogView] creates it and replays the history,
// after which every line is mirrored into it. Evaluated code is echoed
// with chroma syntax highlighting chosen by file name.
//
// [Viewer] is a bubbletea model that pages through a log file and
// follows it as it grows. cmd/conjure-log runs it.
package logview
