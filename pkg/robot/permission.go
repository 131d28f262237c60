// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package robot

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/wire"
)

// PermissionFuture is a single-shot outcome holder. It is fulfilled at most
// once, when the controller's Permission reply arrives, and may be observed
// from any number of goroutines.
type PermissionFuture struct {
	done chan struct{}

	mu        sync.Mutex
	granted   bool
	fulfilled bool
}

func newPermissionFuture() *PermissionFuture {
	return &PermissionFuture{done: make(chan struct{})}
}

// fulfil delivers the outcome. It returns false when the future was already
// fulfilled.
func (f *PermissionFuture) fulfil(granted bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fulfilled {
		return false
	}
	f.granted = granted
	f.fulfilled = true
	close(f.done)
	return true
}

// Done is closed once the outcome is available.
func (f *PermissionFuture) Done() <-chan struct{} {
	return f.done
}

// Granted returns the outcome. It is only meaningful after Done is closed.
func (f *PermissionFuture) Granted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted
}

// Wait blocks until the outcome arrives or ctx is cancelled.
func (f *PermissionFuture) Wait(ctx context.Context) (bool, error) {
	select {
	case <-f.done:
		return f.Granted(), nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// RequestPermission emits a PermissionRequest over telemetry and returns a
// future resolved by the controller's Permission reply for the same
// RequestUID. Re-requesting an in-flight UID replaces the earlier pending
// entry. Entries whose reply never arrives are not garbage-collected here;
// bound their lifetime with Wait and a context.
func (r *ControlledRobot) RequestPermission(req *messages.PermissionRequest) *PermissionFuture {
	future := newPermissionFuture()
	r.permMu.Lock()
	r.pendingPermissions[req.RequestUID] = future
	r.permMu.Unlock()
	r.sendTelemetry(req, wire.PermissionRequest, false)
	return future
}

// fulfilPermission resolves the pending future for a Permission reply.
// The pending entry is consumed; a reply without one is logged and dropped.
func (r *ControlledRobot) fulfilPermission(perm *messages.Permission) {
	r.permMu.Lock()
	future := r.pendingPermissions[perm.RequestUID]
	delete(r.pendingPermissions, perm.RequestUID)
	r.permMu.Unlock()

	if future == nil {
		r.logger.Info("permission reply without pending request",
			zap.String("requestuid", perm.RequestUID))
		return
	}
	if !future.fulfil(perm.Granted) {
		r.logger.Info("duplicate permission reply discarded",
			zap.String("requestuid", perm.RequestUID))
	}
}
