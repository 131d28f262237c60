// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package transport

import (
	"bytes"
	"testing"
)

func decodeAll(t *testing.T, d *frameDecoder, stream []byte) [][]byte {
	t.Helper()
	var msgs [][]byte
	for _, b := range stream {
		msg, err := d.feed(b)
		if err != nil {
			t.Fatalf("feed error: %v", err)
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
	}{
		{"empty", []byte{}},
		{"plain", []byte{0x02, 0x00, 0x01, 0x02}},
		{"contains start byte", []byte{frameStart, 0x01}},
		{"contains end byte", []byte{frameEnd, 0x01}},
		{"contains escape byte", []byte{frameEsc, frameEsc}},
		{"all specials", []byte{frameStart, frameEnd, frameEsc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := encodeFrame(tt.msg)
			msgs := decodeAll(t, &frameDecoder{}, stream)
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			if !bytes.Equal(msgs[0], tt.msg) {
				t.Errorf("round trip mismatch: expected %v, got %v", tt.msg, msgs[0])
			}
		})
	}
}

func TestFrameDecoderMultipleFrames(t *testing.T) {
	stream := append(encodeFrame([]byte{1}), encodeFrame([]byte{2, 2})...)
	msgs := decodeAll(t, &frameDecoder{}, stream)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !bytes.Equal(msgs[0], []byte{1}) || !bytes.Equal(msgs[1], []byte{2, 2}) {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestFrameDecoderGarbageBetweenFrames(t *testing.T) {
	stream := []byte{0x00, 0x42, 0x13}
	stream = append(stream, encodeFrame([]byte{9})...)
	msgs := decodeAll(t, &frameDecoder{}, stream)
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte{9}) {
		t.Errorf("expected single message [9], got %v", msgs)
	}
}

func TestFrameDecoderCRCMismatch(t *testing.T) {
	stream := encodeFrame([]byte{1, 2, 3})
	// Corrupt a payload byte inside the frame.
	stream[2] ^= 0x01

	d := &frameDecoder{}
	var gotErr error
	for _, b := range stream {
		if _, err := d.feed(b); err != nil {
			gotErr = err
		}
	}
	if gotErr == nil {
		t.Fatal("expected CRC error for corrupted frame")
	}

	// Decoder must recover for the next frame.
	msgs := decodeAll(t, d, encodeFrame([]byte{4}))
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte{4}) {
		t.Errorf("decoder did not recover: %v", msgs)
	}
}

func TestFrameDecoderTruncatedFrame(t *testing.T) {
	// A new START aborts the unfinished frame.
	partial := encodeFrame([]byte{1, 2, 3})
	stream := append(partial[:3], encodeFrame([]byte{7})...)
	msgs := decodeAll(t, &frameDecoder{}, stream)
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte{7}) {
		t.Errorf("expected only the complete frame, got %v", msgs)
	}
}

func TestCRC16KnownValue(t *testing.T) {
	// Standard CRC-16-CCITT check value.
	if got := crc16([]byte("123456789")); got != 0x29B1 {
		t.Errorf("crc16 = 0x%04X, expected 0x29B1", got)
	}
}
