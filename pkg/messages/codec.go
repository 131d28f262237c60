// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package messages

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec serializes message payloads for the wire. The engine treats payloads
// as opaque bytes except where it decodes permission replies, file requests
// and the 16-bit sub-kinds inside telemetry/map requests.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// CBORCodec encodes messages as deterministic CBOR. The zero value is ready
// to use.
type CBORCodec struct{}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("messages: encoder options: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("messages: decoder options: %v", err))
	}
}

// Encode serializes v to CBOR.
func (CBORCodec) Encode(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return data, nil
}

// Decode deserializes CBOR data into v.
func (CBORCodec) Decode(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}

// TypeName returns a short label for a message value, used for statistics.
func TypeName(v any) string {
	return fmt.Sprintf("%T", v)
}
