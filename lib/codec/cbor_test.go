// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type sampleRequest struct {
	Command string `json:"command"`
	Key     string `json:"key,omitempty"`
	Path    string `json:"path,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	request := sampleRequest{Command: "eval", Key: "a", Path: "core.clj"}

	first, err := Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(request)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic: %x vs %x", first, again)
		}
	}
}

func TestJSONTagsNameFields(t *testing.T) {
	data, err := Marshal(sampleRequest{Command: "list"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["command"] != "list" {
		t.Errorf("command = %v, want list", decoded["command"])
	}
	if _, present := decoded["key"]; present {
		t.Error("omitempty field was encoded")
	}
}

func TestStreamSequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	requests := []sampleRequest{
		{Command: "connect", Key: "a"},
		{Command: "eval", Path: "x.clj"},
		{Command: "quit"},
	}
	for _, request := range requests {
		if err := encoder.Encode(request); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range requests {
		var got sampleRequest
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if got != want {
			t.Errorf("item %d = %+v, want %+v", i, got, want)
		}
	}

	var extra sampleRequest
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Errorf("Decode past end = %v, want io.EOF", err)
	}
}
