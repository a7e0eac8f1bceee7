// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"regexp"
	"slices"
	"time"
)

const (
	// DefaultDialTimeout bounds Connect when Options.DialTimeout is zero.
	DefaultDialTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds each send when Options.WriteTimeout is
	// zero.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultDocTemplate is the documentation request sent by Doc when
	// Options.DocTemplate is empty. The %s verb receives the symbol name.
	DefaultDocTemplate = "(clojure.repl/doc %s)"
)

// Options configures a Pool. The zero value is usable.
type Options struct {
	// DialTimeout bounds how long Connect waits for the TCP handshake.
	DialTimeout time.Duration

	// WriteTimeout bounds each write to a backend. A backend that stops
	// reading cannot hold the caller for longer than this.
	WriteTimeout time.Duration

	// ReplaceOnReconnect makes Connect with a live key disconnect the
	// existing entry instead of failing with ErrDuplicateKey.
	ReplaceOnReconnect bool

	// Prelude, if non-empty, is sent to every backend immediately after
	// dialing. A failed prelude send closes the socket and fails the
	// Connect with ErrUnreachable.
	Prelude string

	// DocTemplate is a fmt template for documentation requests.
	DocTemplate string

	// Output receives every line a backend writes. Called from the
	// connection's reader goroutine, so it must be safe for concurrent
	// use. Nil discards backend output.
	Output func(key, line string)

	// Closed is called from the reader goroutine when a backend ends
	// the connection on its own (not via Disconnect). err is nil for a
	// clean EOF.
	Closed func(key string, err error)

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Connection describes one registry entry. It is a value snapshot and
// holds no reference to the underlying socket.
type Connection struct {
	Key     string
	Address string
	Match   *regexp.Regexp

	// Stale is true once the backend closed the connection or a send
	// to it failed. Stale entries stay registered until disconnected.
	Stale bool
}

// Pool is the connection registry. Create one with New.
type Pool struct {
	options Options
	entries map[string]*entry
	order   []string
}

// New returns an empty Pool.
func New(options Options) *Pool {
	return &Pool{
		options: options,
		entries: make(map[string]*entry),
	}
}

func (p *Pool) logger() *slog.Logger {
	if p.options.Logger != nil {
		return p.options.Logger
	}
	return slog.Default()
}

func (p *Pool) dialTimeout() time.Duration {
	if p.options.DialTimeout > 0 {
		return p.options.DialTimeout
	}
	return DefaultDialTimeout
}

func (p *Pool) writeTimeout() time.Duration {
	if p.options.WriteTimeout > 0 {
		return p.options.WriteTimeout
	}
	return DefaultWriteTimeout
}

func (p *Pool) docTemplate() string {
	if p.options.DocTemplate != "" {
		return p.options.DocTemplate
	}
	return DefaultDocTemplate
}

// Connect dials address and registers the connection under key. Paths
// matching match are routed to it by Eval and Doc.
func (p *Pool) Connect(ctx context.Context, key, address string, match *regexp.Regexp) error {
	if key == "" {
		return fmt.Errorf("pool: key is required")
	}
	if match == nil {
		return fmt.Errorf("pool: match rule is required")
	}

	if _, exists := p.entries[key]; exists {
		if !p.options.ReplaceOnReconnect {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		p.logger().Info("replacing connection", "key", key)
		if err := p.Disconnect(key); err != nil {
			return err
		}
	}

	dialer := net.Dialer{Timeout: p.dialTimeout()}
	socket, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, address, err)
	}

	e := &entry{
		key:          key,
		address:      address,
		match:        match,
		socket:       socket,
		writeTimeout: p.writeTimeout(),
		readerDone:   make(chan struct{}),
	}

	if p.options.Prelude != "" {
		if err := e.send(p.options.Prelude + "\n"); err != nil {
			socket.Close()
			return fmt.Errorf("%w: %s: sending prelude: %w", ErrUnreachable, address, err)
		}
	}

	p.entries[key] = e
	p.order = append(p.order, key)

	go e.readLoop(p.options.Output, p.options.Closed, p.logger())

	p.logger().Info("connection established",
		"key", key,
		"address", address,
		"match", match.String(),
	)
	return nil
}

// Disconnect closes the connection registered under key and removes
// it. The reader goroutine has exited by the time Disconnect returns.
func (p *Pool) Disconnect(key string) error {
	e, exists := p.entries[key]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	delete(p.entries, key)
	if index := slices.Index(p.order, key); index >= 0 {
		p.order = slices.Delete(p.order, index, index+1)
	}

	e.close()

	p.logger().Info("connection closed", "key", key, "address", e.address)
	return nil
}

// Eval sends code to the connection whose match rule is the first to
// match path. It returns once the code is written; the result arrives
// through Options.Output.
func (p *Pool) Eval(code, path string) error {
	e, err := p.route(path)
	if err != nil {
		return err
	}
	p.logger().Debug("eval", "key", e.key, "path", path, "bytes", len(code))
	return e.send(code + "\n")
}

// Doc sends a documentation lookup for name to the connection routed
// by path, with the same routing and failure contract as Eval.
func (p *Pool) Doc(name, path string) error {
	e, err := p.route(path)
	if err != nil {
		return err
	}
	p.logger().Debug("doc", "key", e.key, "path", path, "name", name)
	return e.send(fmt.Sprintf(p.docTemplate(), name) + "\n")
}

// route returns the earliest registered entry whose rule matches path.
func (p *Pool) route(path string) (*entry, error) {
	for _, key := range p.order {
		e := p.entries[key]
		if e.match.MatchString(path) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoMatch, path)
}

// List returns the registered connections in insertion order. The set
// of entries is captured when List is called; the returned sequence
// can be ranged over any number of times and never changes the pool.
func (p *Pool) List() iter.Seq2[string, Connection] {
	snapshot := make([]Connection, 0, len(p.order))
	for _, key := range p.order {
		snapshot = append(snapshot, p.entries[key].describe())
	}
	return func(yield func(string, Connection) bool) {
		for _, connection := range snapshot {
			if !yield(connection.Key, connection) {
				return
			}
		}
	}
}

// HasConnections reports whether any connection is registered.
func (p *Pool) HasConnections() bool {
	return len(p.order) > 0
}

// Len returns the number of registered connections.
func (p *Pool) Len() int {
	return len(p.order)
}

// Close disconnects every registered connection.
func (p *Pool) Close() {
	for _, key := range slices.Clone(p.order) {
		if err := p.Disconnect(key); err != nil {
			p.logger().Error("disconnect during close failed", "key", key, "error", err)
		}
	}
}
