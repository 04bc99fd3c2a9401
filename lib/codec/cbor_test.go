// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleRequest mirrors the shape of a lock protocol request.
type sampleRequest struct {
	Action string `cbor:"action"`
	Path   string `cbor:"path,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRequest{
		Action: "acquire",
		Path:   "src/lib.rs",
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRequest
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	request := sampleRequest{Action: "release", Path: "main.go"}

	first, err := Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding produced different bytes: %x vs %x", first, second)
	}
}

func TestStreamCarriesValueSequence(t *testing.T) {
	// A connection is a plain sequence of self-delimiting CBOR values.
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, path := range []string{"a.go", "b.go", "c.go"} {
		if err := encoder.Encode(sampleRequest{Action: "acquire", Path: path}); err != nil {
			t.Fatalf("Encode(%s): %v", path, err)
		}
	}

	decoder := NewDecoder(&buffer)
	for _, want := range []string{"a.go", "b.go", "c.go"} {
		var request sampleRequest
		if err := decoder.Decode(&request); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if request.Path != want {
			t.Errorf("decoded path %q, want %q", request.Path, want)
		}
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{
		"action":       "acquire",
		"path":         "x.go",
		"future_field": 42,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var request sampleRequest
	if err := Unmarshal(data, &request); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if request.Action != "acquire" || request.Path != "x.go" {
		t.Errorf("unexpected decode result: %+v", request)
	}
}
