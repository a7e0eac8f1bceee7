// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool is the connection registry: an in-memory store of live
// TCP connections to REPL backends, keyed by a caller-chosen string.
//
// Each entry pairs a backend address with a match rule, a regular
// expression over file paths. [Pool.Eval] and [Pool.Doc] route a
// request by matching its path against every entry's rule in insertion
// order; the first match wins. Nothing about the routing decision is
// cached, so connecting or disconnecting immediately changes where the
// next request goes.
//
// The pool is the only owner of the sockets it opens. [Pool.List]
// yields [Connection] values that describe an entry without exposing
// the socket, and [Pool.Disconnect] is the only way an individual
// socket is released ([Pool.Close] disconnects every entry at
// shutdown).
//
// A Pool is not safe for concurrent mutation. It is designed to be
// driven by a single dispatcher goroutine; the per-connection reader
// goroutines only touch an atomic staleness flag and the configured
// output callbacks.
package pool
