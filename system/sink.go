// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"iter"
	"regexp"

	"github.com/bureau-foundation/conjure/pool"
)

// Sink is the log and error surface the dispatcher reports to.
// Implementations must be safe for concurrent use: backend output
// arrives from connection reader goroutines while the dispatcher
// writes its own lines.
type Sink interface {
	// WriteLine writes one informational line under tag.
	WriteLine(tag, text string)

	// WriteLines writes several informational lines under tag.
	WriteLines(tag string, lines []string)

	// WriteErrorLine writes one error line.
	WriteErrorLine(text string)

	// DisplayOrCreateLogView surfaces the sink's log view, creating it
	// on first use.
	DisplayOrCreateLogView() error
}

// EvalEchoer is an optional Sink extension. When the sink implements
// it, the dispatcher echoes evaluated code into the log once the code
// has been sent. A failed send is not echoed.
type EvalEchoer interface {
	WriteEvalInput(path, code string)
}

// Registry is the set of connection operations the dispatcher drives.
// *pool.Pool implements it.
type Registry interface {
	Connect(ctx context.Context, key, address string, match *regexp.Regexp) error
	Disconnect(key string) error
	Eval(code, path string) error
	Doc(name, path string) error
	List() iter.Seq2[string, pool.Connection]
	HasConnections() bool
}

var _ Registry = (*pool.Pool)(nil)
