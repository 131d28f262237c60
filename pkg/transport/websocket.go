// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket is a transport over a WebSocket connection. Each protocol
// message travels as one binary WebSocket message, so boundaries are
// preserved by the protocol itself.
type WebSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	recv chan []byte

	mu      sync.Mutex
	readErr error
	closed  bool
}

// NewWebSocket wraps an established connection. A reader goroutine drains
// inbound messages so Receive can be non-blocking; non-binary messages are
// skipped.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	w := &WebSocket{
		conn: conn,
		recv: make(chan []byte, 64),
	}
	go w.readLoop()
	return w
}

// DialWebSocket connects to a ws:// or wss:// URL with optional HTTP Basic
// auth.
func DialWebSocket(wsURL, username, password string, skipSSLVerify bool) (*WebSocket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	return NewWebSocket(conn), nil
}

func (w *WebSocket) readLoop() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			if w.readErr == nil {
				w.readErr = err
			}
			w.mu.Unlock()
			close(w.recv)
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.recv <- data:
		default:
			// Queue full: drop the oldest so fresh state wins.
			select {
			case <-w.recv:
			default:
			}
			select {
			case w.recv <- data:
			default:
			}
		}
	}
}

// Send transmits one message as a binary WebSocket frame.
func (w *WebSocket) Send(msg []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return 0, fmt.Errorf("websocket send: %w", err)
	}
	return len(msg), nil
}

// Receive returns the next buffered inbound message.
func (w *WebSocket) Receive(flags Flags) ([]byte, bool, error) {
	if flags&NoBlock != 0 {
		select {
		case msg, ok := <-w.recv:
			if !ok {
				return nil, false, w.closeError()
			}
			return msg, true, nil
		default:
			return nil, false, nil
		}
	}
	msg, ok := <-w.recv
	if !ok {
		return nil, false, w.closeError()
	}
	return msg, true, nil
}

func (w *WebSocket) closeError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readErr != nil {
		return w.readErr
	}
	return ErrClosed
}

// Close tears the connection down; the reader goroutine exits on its own.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.conn.Close()
}
