// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/conjure/lib/codec"
)

// Wire selects how Server decodes requests.
type Wire string

const (
	// WireJSON is one JSON object per line.
	WireJSON Wire = "json"

	// WireCBOR is a CBOR sequence of maps.
	WireCBOR Wire = "cbor"
)

// ParseWire validates a wire format name.
func ParseWire(name string) (Wire, error) {
	switch Wire(name) {
	case WireJSON, WireCBOR:
		return Wire(name), nil
	default:
		return "", fmt.Errorf("unknown wire format %q (want json or cbor)", name)
	}
}

// DefaultMaxRequestLength caps one JSON request line when
// Server.MaxRequestLength is zero. Eval requests carry whole buffers,
// so this is generous.
const DefaultMaxRequestLength = 16 * 1024 * 1024

// Server reads editor requests and feeds them to a Queue.
type Server struct {
	// Reader is the request stream, typically os.Stdin.
	Reader io.Reader

	// Wire is the request encoding. Empty means WireJSON.
	Wire Wire

	// MaxRequestLength caps one JSON request line, newline included.
	// Longer lines are reported as parse errors and skipped. Zero means
	// DefaultMaxRequestLength.
	MaxRequestLength int

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) maxRequestLength() int {
	if s.MaxRequestLength > 0 {
		return s.MaxRequestLength
	}
	return DefaultMaxRequestLength
}

// Serve reads requests until the reader is exhausted, pushing one
// Result per request. The queue is closed when Serve returns, which the
// consumer treats as the end of the session. A nil return means the
// input ended cleanly.
func (s *Server) Serve(queue *Queue) error {
	defer queue.Close()

	switch s.Wire {
	case "", WireJSON:
		return s.serveJSON(queue)
	case WireCBOR:
		return s.serveCBOR(queue)
	default:
		return fmt.Errorf("editor: unknown wire format %q", s.Wire)
	}
}

func (s *Server) serveJSON(queue *Queue) error {
	reader := bufio.NewReaderSize(s.Reader, 64*1024)
	limit := s.maxRequestLength()

	for {
		line, tooLong, err := readLine(reader, limit)
		if tooLong {
			s.logger().Warn("request line too long", "limit", limit)
			queue.Push(Result{Err: &ParseError{Err: fmt.Errorf("request exceeds %d bytes", limit)}})
		} else if line = bytes.TrimSpace(line); len(line) > 0 {
			s.pushJSON(queue, line)
		}

		if errors.Is(err, io.EOF) {
			s.logger().Info("request stream ended")
			return nil
		}
		if err != nil {
			s.logger().Error("reading requests failed", "error", err)
			return fmt.Errorf("editor: reading requests: %w", err)
		}
	}
}

func (s *Server) pushJSON(queue *Queue, line []byte) {
	var request Request
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		queue.Push(Result{Err: &ParseError{Err: fmt.Errorf("decoding request: %w", err)}})
		return
	}
	s.push(queue, request)
}

// readLine returns the next newline-terminated line. A line longer than
// limit is consumed up to its newline and discarded, with tooLong set,
// so the stream stays in sync with the following request.
func readLine(reader *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		fragment, readErr := reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(fragment) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, fragment...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, readErr
	}
}

func (s *Server) serveCBOR(queue *Queue) error {
	decoder := codec.NewDecoder(s.Reader)

	for {
		var request Request
		err := decoder.Decode(&request)
		if errors.Is(err, io.EOF) {
			s.logger().Info("request stream ended")
			return nil
		}
		if err != nil {
			var typeError *codec.UnmarshalTypeError
			if errors.As(err, &typeError) {
				// Well-framed item with the wrong shape; the stream is
				// still in sync.
				queue.Push(Result{Err: &ParseError{Err: fmt.Errorf("decoding request: %w", err)}})
				continue
			}
			// Anything else leaves the decoder at an unknown offset.
			queue.Push(Result{Err: &ParseError{Err: fmt.Errorf("decoding request stream: %w", err)}})
			s.logger().Error("request stream unreadable", "error", err)
			return fmt.Errorf("editor: decoding requests: %w", err)
		}
		s.push(queue, request)
	}
}

func (s *Server) push(queue *Queue, request Request) {
	event, err := request.Event()
	if err != nil {
		queue.Push(Result{Err: err})
		return
	}
	queue.PushEvent(event)
}
