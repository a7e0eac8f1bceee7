// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package system is conjure's control loop. A [Dispatcher] consumes
// editor events one at a time from an editor.Queue and applies each to
// a connection [Registry] or a [Sink].
//
// The dispatcher is a two-state machine: [Running] until a Quit event,
// the end of input, or context cancellation moves it to [Terminated].
// Operation failures never change the state. Every registry or sink
// error is turned into one line on the sink, so a dead backend or a
// malformed request cannot stop the session.
//
// All registry mutation happens on the goroutine running
// [Dispatcher.Run]; the registry needs no locking of its own.
package system
