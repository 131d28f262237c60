// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

// Package wire defines the tagged wire format spoken between a controlled
// robot and its remote controller.
//
// Every blob on either transport starts with a 16-bit message kind followed
// by the codec-serialized payload. The kind is little-endian on the wire;
// implementations on big-endian hosts must byteswap. There is no length
// prefix: the transport preserves message boundaries.
package wire

import (
	"encoding/binary"
	"fmt"
)

// TypeSize is the size of the kind tag at the head of every frame.
const TypeSize = 2

// ErrFrameTooShort is returned by Split for blobs shorter than the kind tag.
var ErrFrameTooShort = fmt.Errorf("frame shorter than %d bytes", TypeSize)

// Frame prepends the 2-byte kind tag to a payload.
func Frame(kind uint16, payload []byte) []byte {
	buf := make([]byte, TypeSize+len(payload))
	binary.LittleEndian.PutUint16(buf, kind)
	copy(buf[TypeSize:], payload)
	return buf
}

// Split strips the kind tag off a frame and returns (kind, payload).
// The payload aliases the input; callers that keep it must copy.
func Split(frame []byte) (uint16, []byte, error) {
	if len(frame) < TypeSize {
		return 0, nil, ErrFrameTooShort
	}
	return binary.LittleEndian.Uint16(frame), frame[TypeSize:], nil
}

// AppendType appends a bare kind tag to buf, little-endian.
func AppendType(buf []byte, kind uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, kind)
}
