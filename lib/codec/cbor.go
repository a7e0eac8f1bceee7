// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Requests only use string keys. Decoding into any must yield
		// map[string]any rather than CBOR's map[any]any default.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Bound nesting so a hostile or broken editor cannot make the
		// decoder recurse without limit.
		MaxNestedLevels: 16,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// UnmarshalTypeError reports a well-formed item that does not fit the
// target type. The stream decoder has already moved past the item, so
// decoding can continue with the next one.
type UnmarshalTypeError = cbor.UnmarshalTypeError

// NewEncoder returns an encoder writing a CBOR sequence to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a decoder reading a CBOR sequence from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
