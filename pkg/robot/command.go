// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package robot

import (
	"sync"
	"sync/atomic"

	"github.com/kelpie-robotics/uplink/pkg/buffer"
	"github.com/kelpie-robotics/uplink/pkg/messages"
)

// commandSlot is the registry-facing capability set of a command buffer:
// decode inbound payload bytes, remember them, and run the per-kind
// callbacks.
type commandSlot interface {
	write(payload []byte) error
	addCallback(cb func())
}

// callbackList runs registered per-kind callbacks on every successful write.
type callbackList struct {
	mu  sync.Mutex
	cbs []func()
}

func (c *callbackList) add(cb func()) {
	c.mu.Lock()
	c.cbs = append(c.cbs, cb)
	c.mu.Unlock()
}

func (c *callbackList) notify() {
	c.mu.Lock()
	cbs := make([]func(), len(c.cbs))
	copy(cbs, c.cbs)
	c.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// latestCommand keeps the most recent decoded command plus a fresh flag.
// The flag is true iff a write happened since the last read; a failed
// decode leaves both value and flag untouched.
type latestCommand[T any] struct {
	codec messages.Codec

	mu    sync.Mutex
	value T

	fresh atomic.Bool

	callbacks callbackList
}

func newLatestCommand[T any](codec messages.Codec) *latestCommand[T] {
	return &latestCommand[T]{codec: codec}
}

func (s *latestCommand[T]) write(payload []byte) error {
	var v T
	if err := s.codec.Decode(payload, &v); err != nil {
		return err
	}
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.fresh.Store(true)
	s.callbacks.notify()
	return nil
}

// read copies the latest value into out and reports whether it was not
// read before. The flag and the value may tear against a concurrent write;
// a true return only warrants that some write happened since the last read.
func (s *latestCommand[T]) read(out *T) bool {
	s.mu.Lock()
	*out = s.value
	s.mu.Unlock()
	return s.fresh.Swap(false)
}

func (s *latestCommand[T]) addCallback(cb func()) {
	s.callbacks.add(cb)
}

// ringCommand queues decoded commands in arrival order, dropping the oldest
// when full. Used for action streams where every command matters, not just
// the latest.
type ringCommand[T any] struct {
	codec messages.Codec
	ring  *buffer.Ring[T]

	callbacks callbackList
}

func newRingCommand[T any](codec messages.Codec, capacity int) *ringCommand[T] {
	return &ringCommand[T]{
		codec: codec,
		ring:  buffer.NewRing[T](capacity),
	}
}

func (s *ringCommand[T]) write(payload []byte) error {
	var v T
	if err := s.codec.Decode(payload, &v); err != nil {
		return err
	}
	s.ring.Push(v)
	s.callbacks.notify()
	return nil
}

// read pops the oldest queued command into out, false when the queue is
// empty.
func (s *ringCommand[T]) read(out *T) bool {
	return s.ring.Pop(out)
}

func (s *ringCommand[T]) addCallback(cb func()) {
	s.callbacks.add(cb)
}
