// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package buffer

import (
	"sync"

	"github.com/kelpie-robotics/uplink/pkg/wire"
)

// Telemetry maps each registered telemetry kind to a latest-value slot.
// Slots are created at registration and live for the lifetime of the engine;
// both the push path (store + send) and the pull path (telemetry requests)
// read the same slot.
type Telemetry struct {
	mu    sync.RWMutex
	slots map[wire.TelemetryType]*Latest
}

// NewTelemetry creates an empty telemetry registry.
func NewTelemetry() *Telemetry {
	return &Telemetry{slots: make(map[wire.TelemetryType]*Latest)}
}

// Register reserves a slot for kind. Registering twice keeps the first slot.
func (t *Telemetry) Register(kind wire.TelemetryType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.slots[kind]; !ok {
		t.slots[kind] = &Latest{}
	}
}

// Registered reports whether kind has a slot.
func (t *Telemetry) Registered(kind wire.TelemetryType) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.slots[kind]
	return ok
}

// Store saves the unframed serialization of the latest push for kind.
// Stores to unregistered kinds are dropped.
func (t *Telemetry) Store(kind wire.TelemetryType, data []byte) {
	t.mu.RLock()
	slot := t.slots[kind]
	t.mu.RUnlock()
	if slot != nil {
		slot.Set(data)
	}
}

// PeekSerialized returns the kind-tagged serialization of the last push.
// Before the first push (or for an unregistered kind) the reply is the bare
// tag, so a pull request is always answered with a well-formed frame.
func (t *Telemetry) PeekSerialized(kind wire.TelemetryType) []byte {
	reply := wire.AppendType(nil, uint16(kind))
	t.mu.RLock()
	slot := t.slots[kind]
	t.mu.RUnlock()
	if slot != nil {
		reply = slot.AppendTo(reply)
	}
	return reply
}
