// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import "errors"

var (
	// ErrDuplicateKey is returned by Connect when the key already has a
	// live connection and the pool does not replace on reconnect.
	ErrDuplicateKey = errors.New("key is already connected")

	// ErrUnknownKey is returned by Disconnect for a key with no entry.
	ErrUnknownKey = errors.New("no connection with this key")

	// ErrUnreachable is returned by Connect when the backend cannot be
	// dialed or the connection fails during setup.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrNoMatch is returned by Eval and Doc when no entry's match rule
	// matches the request path.
	ErrNoMatch = errors.New("no connection matches path")

	// ErrConnectionUnavailable is returned by Eval and Doc when the
	// routed connection is stale or the send fails.
	ErrConnectionUnavailable = errors.New("connection unavailable")
)
