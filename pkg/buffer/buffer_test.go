// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package buffer

import (
	"bytes"
	"sync"
	"testing"

	"github.com/kelpie-robotics/uplink/pkg/wire"
)

// ============================================================
// Latest Slot Tests
// ============================================================

func TestLatestEmpty(t *testing.T) {
	var slot Latest
	if got := slot.Bytes(); got != nil {
		t.Errorf("expected nil before first Set, got %v", got)
	}
}

func TestLatestSetReplaces(t *testing.T) {
	var slot Latest
	slot.Set([]byte{1, 2, 3})
	slot.Set([]byte{4, 5})
	if got := slot.Bytes(); !bytes.Equal(got, []byte{4, 5}) {
		t.Errorf("expected latest value [4 5], got %v", got)
	}
}

func TestLatestCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	var slot Latest
	slot.Set(src)
	src[0] = 99
	if got := slot.Bytes(); got[0] != 1 {
		t.Error("Set must copy the input slice")
	}
	got := slot.Bytes()
	got[0] = 77
	if again := slot.Bytes(); again[0] != 1 {
		t.Error("Bytes must return a copy")
	}
}

// ============================================================
// Ring Buffer Tests
// ============================================================

func TestRingPopEmpty(t *testing.T) {
	ring := NewRing[int](4)
	var out int
	if ring.Pop(&out) {
		t.Error("Pop on empty ring should return false")
	}
}

func TestRingFIFO(t *testing.T) {
	ring := NewRing[int](4)
	for i := 1; i <= 3; i++ {
		ring.Push(i)
	}
	for want := 1; want <= 3; want++ {
		var out int
		if !ring.Pop(&out) || out != want {
			t.Fatalf("expected %d, got %d", want, out)
		}
	}
}

func TestRingOverflowKeepsNewest(t *testing.T) {
	// Push N > capacity: the newest capacity elements survive in order.
	ring := NewRing[int](3)
	for i := 1; i <= 7; i++ {
		ring.Push(i)
	}
	if ring.Len() != 3 {
		t.Fatalf("expected len 3, got %d", ring.Len())
	}
	for want := 5; want <= 7; want++ {
		var out int
		if !ring.Pop(&out) || out != want {
			t.Fatalf("expected %d, got %d", want, out)
		}
	}
	var out int
	if ring.Pop(&out) {
		t.Error("ring should be empty")
	}
}

func TestRingInterleaved(t *testing.T) {
	ring := NewRing[string](2)
	ring.Push("a")
	var out string
	ring.Pop(&out)
	ring.Push("b")
	ring.Push("c")
	ring.Push("d") // evicts "b"
	if !ring.Pop(&out) || out != "c" {
		t.Fatalf("expected c, got %q", out)
	}
	if !ring.Pop(&out) || out != "d" {
		t.Fatalf("expected d, got %q", out)
	}
}

func TestRingConcurrent(t *testing.T) {
	ring := NewRing[int](64)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				ring.Push(i)
				var out int
				ring.Pop(&out)
			}
		}()
	}
	wg.Wait()
}

// ============================================================
// Telemetry Registry Tests
// ============================================================

func TestTelemetryPeekUnregistered(t *testing.T) {
	reg := NewTelemetry()
	reply := reg.PeekSerialized(wire.CurrentPose)
	// Bare tag: a pull is always answered with a well-formed frame.
	if len(reply) != wire.TypeSize {
		t.Fatalf("expected bare tag, got %d bytes", len(reply))
	}
}

func TestTelemetryStoreAndPeek(t *testing.T) {
	reg := NewTelemetry()
	reg.Register(wire.CurrentPose)

	reply := reg.PeekSerialized(wire.CurrentPose)
	if len(reply) != wire.TypeSize {
		t.Fatalf("expected bare tag before first store, got %d bytes", len(reply))
	}

	reg.Store(wire.CurrentPose, []byte{0xDE, 0xAD})
	reply = reg.PeekSerialized(wire.CurrentPose)
	kind, payload, err := wire.Split(reply)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if wire.TelemetryType(kind) != wire.CurrentPose {
		t.Errorf("expected CURRENT_POSE tag, got %d", kind)
	}
	if !bytes.Equal(payload, []byte{0xDE, 0xAD}) {
		t.Errorf("payload mismatch: %v", payload)
	}
}

func TestTelemetryStoreUnregisteredDropped(t *testing.T) {
	reg := NewTelemetry()
	reg.Store(wire.CurrentTwist, []byte{1})
	if reg.Registered(wire.CurrentTwist) {
		t.Error("Store must not implicitly register")
	}
}

// ============================================================
// Map Store Tests
// ============================================================

func TestMapStore(t *testing.T) {
	store := NewMapStore()
	if got := store.Peek(7); got != nil {
		t.Errorf("expected nil for unset id, got %v", got)
	}
	store.Set(7, []byte("gridmap"))
	if got := store.Peek(7); !bytes.Equal(got, []byte("gridmap")) {
		t.Errorf("unexpected payload: %v", got)
	}
	store.Set(7, []byte("updated"))
	if got := store.Peek(7); !bytes.Equal(got, []byte("updated")) {
		t.Errorf("expected replacement, got %v", got)
	}
	if ids := store.IDs(); len(ids) != 1 || ids[0] != 7 {
		t.Errorf("unexpected IDs: %v", ids)
	}
}
