// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration for conjure's binary
// editor wire format.
//
// Editors that speak CBOR send a CBOR sequence (RFC 8742) of request
// maps on the bridge's stdin; see editor.Server. Field names come from
// `json` struct tags, which fxamacker/cbor reads as a fallback, so one
// set of tags describes both the JSON and the CBOR wire formats.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2) so the
// same request always produces the same bytes, which keeps test
// fixtures stable:
//
//	encoder := codec.NewEncoder(pipe)
//	decoder := codec.NewDecoder(os.Stdin)
package codec
