// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package robot

import (
	"context"
	"testing"
	"time"

	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/wire"
)

func TestPermissionRoundTrip(t *testing.T) {
	r, peer := newTestRobot(t)

	req := &messages.PermissionRequest{Description: "open gripper", RequestUID: "u1"}
	future := r.RequestPermission(req)
	if future == nil {
		t.Fatal("RequestPermission must always return a future")
	}

	// The request travels as PERMISSION_REQUEST telemetry.
	kind, payload := peer.telemetryFrame()
	if kind != wire.PermissionRequest {
		t.Fatalf("expected PERMISSION_REQUEST push, got %s", kind)
	}
	var sent messages.PermissionRequest
	if err := peer.codec.Decode(payload, &sent); err != nil || sent.RequestUID != "u1" {
		t.Fatalf("bad request payload: %+v err=%v", sent, err)
	}

	select {
	case <-future.Done():
		t.Fatal("future resolved before the reply")
	default:
	}

	peer.sendCommand(wire.Permission, peer.encode(&messages.Permission{RequestUID: "u1", Granted: true}))
	r.Update()
	peer.expectAck(wire.Permission)

	select {
	case <-future.Done():
	case <-time.After(time.Second):
		t.Fatal("future not resolved")
	}
	if !future.Granted() {
		t.Error("expected granted=true")
	}

	// A duplicate reply for the same uid is discarded silently and does not
	// alter the resolved future.
	peer.sendCommand(wire.Permission, peer.encode(&messages.Permission{RequestUID: "u1", Granted: false}))
	r.Update()
	peer.expectAck(wire.Permission)
	if !future.Granted() {
		t.Error("duplicate reply must not alter the outcome")
	}
}

func TestPermissionDenied(t *testing.T) {
	r, peer := newTestRobot(t)

	future := r.RequestPermission(&messages.PermissionRequest{RequestUID: "deny-me"})
	peer.drainTelemetry()

	peer.sendCommand(wire.Permission, peer.encode(&messages.Permission{RequestUID: "deny-me", Granted: false}))
	r.Update()
	peer.reply()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	granted, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if granted {
		t.Error("expected granted=false")
	}
}

func TestPermissionWaitContextCancel(t *testing.T) {
	r, _ := newTestRobot(t)

	future := r.RequestPermission(&messages.PermissionRequest{RequestUID: "never-answered"})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := future.Wait(ctx); err == nil {
		t.Error("expected context error for abandoned request")
	}
}

func TestPermissionReplyWithoutRequest(t *testing.T) {
	r, peer := newTestRobot(t)

	// Unsolicited replies are acknowledged and dropped.
	peer.sendCommand(wire.Permission, peer.encode(&messages.Permission{RequestUID: "ghost", Granted: true}))
	r.Update()
	peer.expectAck(wire.Permission)
}

func TestPermissionReRequestReplacesPending(t *testing.T) {
	r, peer := newTestRobot(t)

	first := r.RequestPermission(&messages.PermissionRequest{RequestUID: "u2"})
	second := r.RequestPermission(&messages.PermissionRequest{RequestUID: "u2"})
	peer.drainTelemetry()

	peer.sendCommand(wire.Permission, peer.encode(&messages.Permission{RequestUID: "u2", Granted: true}))
	r.Update()
	peer.reply()

	select {
	case <-second.Done():
	case <-time.After(time.Second):
		t.Fatal("replacement future not resolved")
	}
	select {
	case <-first.Done():
		t.Error("replaced future must stay pending")
	default:
	}
}

func TestMalformedPermissionRepliesNoData(t *testing.T) {
	r, peer := newTestRobot(t)
	peer.sendCommand(wire.Permission, []byte{0xFF})
	r.Update()
	peer.expectAck(wire.NoData)
}
