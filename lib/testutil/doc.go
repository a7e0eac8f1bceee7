// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for conjure packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests never block forever on a channel.
//
// [NewBackend] starts a fake REPL backend on a loopback TCP port. It
// records every line a client sends, can write lines back to every
// connected client, and can drop its connections to simulate a backend
// going away. [UnreachableAddress] returns a loopback address with
// nothing listening on it.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
