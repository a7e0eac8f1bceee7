// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package editor is the boundary between an editor front-end and the
// dispatcher.
//
// [Event] is a closed set of command types: [Quit], [List], [ShowLog],
// [Connect], [Disconnect], [Eval], and [Doc]. Requests arrive as
// [Request] values on the wire and are validated into events by
// [Request.Event]; anything malformed becomes a [*ParseError] instead
// of an event, so the consumer sees exactly one [Result] per request.
//
// [Queue] is the ordered, unbounded hand-off between the transport
// goroutine and the single consumer. [Server] is the transport: it
// reads newline-delimited JSON or a CBOR sequence from a reader and
// pushes one Result per request, closing the queue when input ends.
package editor
