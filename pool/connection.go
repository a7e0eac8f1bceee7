// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// maxLineLength caps a single forwarded line of backend output.
const maxLineLength = 1024 * 1024

// entry is one registered connection. The socket is owned by the entry
// and released only by close.
type entry struct {
	key          string
	address      string
	match        *regexp.Regexp
	socket       net.Conn
	writeTimeout time.Duration

	// writeMutex serializes sends so a prelude and an eval cannot
	// interleave on the wire.
	writeMutex sync.Mutex

	stale   atomic.Bool
	closing atomic.Bool

	// readerDone is closed when readLoop returns.
	readerDone chan struct{}
}

func (e *entry) describe() Connection {
	return Connection{
		Key:     e.key,
		Address: e.address,
		Match:   e.match,
		Stale:   e.stale.Load(),
	}
}

// send writes text to the backend under the write deadline. A failed
// write marks the entry stale.
func (e *entry) send(text string) error {
	if e.stale.Load() {
		return fmt.Errorf("%w: [%s] %s is closed", ErrConnectionUnavailable, e.key, e.address)
	}

	e.writeMutex.Lock()
	defer e.writeMutex.Unlock()

	if err := e.socket.SetWriteDeadline(time.Now().Add(e.writeTimeout)); err != nil {
		e.stale.Store(true)
		return fmt.Errorf("%w: [%s] %w", ErrConnectionUnavailable, e.key, err)
	}
	if _, err := io.WriteString(e.socket, text); err != nil {
		e.stale.Store(true)
		return fmt.Errorf("%w: [%s] %w", ErrConnectionUnavailable, e.key, err)
	}
	return nil
}

// readLoop forwards backend output line by line until the socket is
// closed from either side. A line longer than maxLineLength is
// forwarded in maxLineLength pieces; only a read error or EOF ends the
// loop.
func (e *entry) readLoop(output func(key, line string), closed func(key string, err error), logger *slog.Logger) {
	defer close(e.readerDone)

	forward := func(line []byte) {
		if output != nil {
			output(e.key, string(line))
		}
	}

	reader := bufio.NewReaderSize(e.socket, 64*1024)
	var pending []byte
	// split is set once part of the current line has been forwarded.
	split := false
	var err error
	for {
		fragment, isPrefix, readErr := reader.ReadLine()
		if readErr != nil {
			if len(pending) > 0 {
				forward(pending)
			}
			err = readErr
			break
		}
		pending = append(pending, fragment...)
		for len(pending) >= maxLineLength {
			forward(pending[:maxLineLength])
			pending = pending[maxLineLength:]
			split = true
		}
		if !isPrefix {
			if len(pending) > 0 || !split {
				forward(pending)
			}
			pending = nil
			split = false
		}
	}

	e.stale.Store(true)
	if e.closing.Load() {
		return
	}

	if isExpectedCloseError(err) {
		err = nil
	}
	logger.Warn("backend closed connection",
		"key", e.key,
		"address", e.address,
		"error", err,
	)
	if closed != nil {
		closed(e.key, err)
	}
}

// close releases the socket and waits for the reader to exit. Safe to
// call on an entry whose backend already went away.
func (e *entry) close() {
	e.closing.Store(true)
	e.stale.Store(true)
	e.socket.Close()
	<-e.readerDone
}

// isExpectedCloseError reports whether err is an ordinary end of a
// connection (EOF, use of a closed socket, reset, or broken pipe).
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
