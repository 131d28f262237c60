// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package messages

import (
	"bytes"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := CBORCodec{}

	in := Pose{
		Position:    Vector3{X: 1.5, Y: -2, Z: 0.25},
		Orientation: Quaternion{W: 1},
		Frame:       "base_link",
	}
	data, err := codec.Encode(&in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out Pose
	if err := codec.Decode(data, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Position != in.Position || out.Orientation != in.Orientation || out.Frame != in.Frame {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestCodecDeterministic(t *testing.T) {
	codec := CBORCodec{}
	v := JointState{Names: []string{"a", "b"}, Positions: []float64{1, 2}}
	d1, _ := codec.Encode(&v)
	d2, _ := codec.Encode(&v)
	if !bytes.Equal(d1, d2) {
		t.Error("encoding must be deterministic")
	}
}

func TestCodecDecodeGarbage(t *testing.T) {
	codec := CBORCodec{}
	var out Twist
	if err := codec.Decode([]byte{0xFF}, &out); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestCodecIntegerKeys(t *testing.T) {
	// keyasint tags keep field names off the wire; a one-field struct
	// encodes as a one-entry integer-keyed map.
	codec := CBORCodec{}
	data, err := codec.Encode(&RobotName{Value: "x"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// {1: "x"} = a1 01 61 78
	want := []byte{0xA1, 0x01, 0x61, 0x78}
	if !bytes.Equal(data, want) {
		t.Errorf("unexpected encoding: %X, want %X", data, want)
	}
}

func TestTypeName(t *testing.T) {
	if got := TypeName(Pose{}); got != "messages.Pose" {
		t.Errorf("TypeName = %q", got)
	}
}
