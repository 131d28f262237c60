// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package transport

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// Serial is a transport over a serial line. Message boundaries are restored
// with byte-stuffed framing and a CRC per frame; corrupted frames are
// dropped and counted.
type Serial struct {
	port serial.Port

	writeMu sync.Mutex

	recv chan []byte

	mu       sync.Mutex
	readErr  error
	closed   bool
	dropped  uint64
}

// OpenSerial opens a serial port in 8N1 mode and starts the frame
// reassembly loop.
func OpenSerial(portName string, baudRate int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	s := &Serial{
		port: port,
		recv: make(chan []byte, 64),
	}
	go s.readLoop()
	return s, nil
}

func (s *Serial) readLoop() {
	decoder := &frameDecoder{}
	buf := make([]byte, 256)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			s.mu.Lock()
			if s.readErr == nil {
				s.readErr = err
			}
			s.mu.Unlock()
			close(s.recv)
			return
		}
		for i := 0; i < n; i++ {
			msg, err := decoder.feed(buf[i])
			if err != nil {
				s.mu.Lock()
				s.dropped++
				s.mu.Unlock()
				continue
			}
			if msg == nil {
				continue
			}
			select {
			case s.recv <- msg:
			default:
				s.mu.Lock()
				s.dropped++
				s.mu.Unlock()
			}
		}
	}
}

// Send wraps msg in a frame and writes it to the port.
func (s *Serial) Send(msg []byte) (int, error) {
	frame := encodeFrame(msg)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.port.Write(frame); err != nil {
		return 0, fmt.Errorf("serial send: %w", err)
	}
	return len(msg), nil
}

// Receive returns the next reassembled message.
func (s *Serial) Receive(flags Flags) ([]byte, bool, error) {
	if flags&NoBlock != 0 {
		select {
		case msg, ok := <-s.recv:
			if !ok {
				return nil, false, s.closeError()
			}
			return msg, true, nil
		default:
			return nil, false, nil
		}
	}
	msg, ok := <-s.recv
	if !ok {
		return nil, false, s.closeError()
	}
	return msg, true, nil
}

// Dropped returns the number of frames discarded due to CRC or length
// errors or receive-queue overflow. Frames cut short by a new START are not
// counted.
func (s *Serial) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Serial) closeError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return s.readErr
	}
	return ErrClosed
}

// Close closes the port; the read loop exits on its own.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.port.Close()
}
