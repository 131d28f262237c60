// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package transport

import (
	"fmt"
	"sync"
	"syscall"

	zmq "github.com/pebbe/zmq4"
)

// ZmqSocketType selects the ZeroMQ socket pattern of a Zmq transport.
type ZmqSocketType int

// Socket patterns. The robot side runs REP for commands and PUB for
// telemetry; the controller side runs the matching REQ and SUB.
const (
	ZmqREQ ZmqSocketType = iota
	ZmqREP
	ZmqPUB
	ZmqSUB
)

// Zmq is a ZeroMQ transport. REP and PUB bind to the address, REQ and SUB
// connect to it. ZeroMQ preserves message boundaries natively.
type Zmq struct {
	mu   sync.Mutex
	sock *zmq.Socket
	addr string
}

// NewZmq opens a ZeroMQ socket of the given pattern on addr
// (e.g. "tcp://*:7001" to bind, "tcp://127.0.0.1:7001" to connect).
func NewZmq(addr string, socketType ZmqSocketType) (*Zmq, error) {
	var (
		sock *zmq.Socket
		err  error
	)
	switch socketType {
	case ZmqREQ:
		sock, err = zmq.NewSocket(zmq.REQ)
	case ZmqREP:
		sock, err = zmq.NewSocket(zmq.REP)
	case ZmqPUB:
		sock, err = zmq.NewSocket(zmq.PUB)
	case ZmqSUB:
		sock, err = zmq.NewSocket(zmq.SUB)
	default:
		return nil, fmt.Errorf("unknown zmq socket type %d", socketType)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating zmq socket: %w", err)
	}

	switch socketType {
	case ZmqREP, ZmqPUB:
		err = sock.Bind(addr)
	case ZmqREQ, ZmqSUB:
		err = sock.Connect(addr)
	}
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("error attaching zmq socket to %s: %w", addr, err)
	}

	if socketType == ZmqSUB {
		if err := sock.SetSubscribe(""); err != nil {
			sock.Close()
			return nil, fmt.Errorf("error subscribing: %w", err)
		}
	}

	return &Zmq{sock: sock, addr: addr}, nil
}

// Send transmits one message. Safe for concurrent callers; the underlying
// socket is not, so sends are serialized here.
func (z *Zmq) Send(msg []byte) (int, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.sock == nil {
		return 0, ErrClosed
	}
	n, err := z.sock.SendBytes(msg, 0)
	if err != nil {
		return 0, fmt.Errorf("zmq send on %s: %w", z.addr, err)
	}
	return n, nil
}

// Receive returns the next pending message. With NoBlock, EAGAIN from the
// socket maps to (nil, false, nil).
func (z *Zmq) Receive(flags Flags) ([]byte, bool, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.sock == nil {
		return nil, false, ErrClosed
	}
	var zflags zmq.Flag
	if flags&NoBlock != 0 {
		zflags |= zmq.DONTWAIT
	}
	msg, err := z.sock.RecvBytes(zflags)
	if err != nil {
		if zmq.AsErrno(err) == zmq.Errno(syscall.EAGAIN) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("zmq receive on %s: %w", z.addr, err)
	}
	return msg, true, nil
}

// Close shuts the socket down.
func (z *Zmq) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.sock == nil {
		return nil
	}
	err := z.sock.Close()
	z.sock = nil
	return err
}
