// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Kelpie Robotics

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/kelpie-robotics/uplink/pkg/transport"
)

// GetPassword retrieves the WebSocket password from the environment or
// prompts the user without echo.
func GetPassword() (string, error) {
	if pw := os.Getenv("UPLINK_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransports opens the command and telemetry transports based on the
// connection flags. The telemetry transport may be nil in serial mode,
// where only the command channel fits on the line.
func OpenTransports() (command, telemetry transport.Transport, desc string, err error) {
	if wsCommandURL != "" {
		password := ""
		if wsUsername != "" {
			password, err = GetPassword()
			if err != nil {
				return nil, nil, "", err
			}
		}
		command, err = transport.DialWebSocket(wsCommandURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, nil, "", err
		}
		if wsTelemetryURL != "" {
			telemetry, err = transport.DialWebSocket(wsTelemetryURL, wsUsername, password, wsNoSSLVerify)
			if err != nil {
				command.Close()
				return nil, nil, "", err
			}
		}
		return command, telemetry, fmt.Sprintf("WebSocket: %s", wsCommandURL), nil
	}

	if portName != "" {
		command, err = transport.OpenSerial(portName, baudRate)
		if err != nil {
			return nil, nil, "", err
		}
		return command, nil, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	command, err = transport.NewZmq(commandEndpoint, transport.ZmqREP)
	if err != nil {
		return nil, nil, "", err
	}
	telemetry, err = transport.NewZmq(telemetryEndpoint, transport.ZmqPUB)
	if err != nil {
		command.Close()
		return nil, nil, "", err
	}
	return command, telemetry, fmt.Sprintf("ZeroMQ: %s / %s", commandEndpoint, telemetryEndpoint), nil
}
