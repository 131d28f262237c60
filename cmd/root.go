// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Kelpie Robotics

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// ZeroMQ endpoint flags
	commandEndpoint   string
	telemetryEndpoint string

	// WebSocket connection flags
	wsCommandURL   string
	wsTelemetryURL string
	wsUsername     string
	wsNoSSLVerify  bool

	// Serial connection flags
	portName string
	baudRate int

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "uplink",
	Short: "Robot-side remote control daemon",
	Long: `Uplink - the controlled-robot side of the Kelpie remote control protocol.

Listens for controller commands on the command channel, answers every
request, and pushes telemetry on the telemetry channel.

Connection modes:
  ZeroMQ:    --command tcp://*:7001 --telemetry tcp://*:7002 (default)
  WebSocket: --ws-command ws://host/command --ws-telemetry ws://host/telemetry
  Serial:    --port /dev/ttyUSB0 [--baud 115200] (command channel only)

For WebSocket authentication, the password is read from the UPLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.2.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commandEndpoint, "command", "tcp://*:7001", "ZeroMQ REP endpoint for the command channel")
	rootCmd.PersistentFlags().StringVar(&telemetryEndpoint, "telemetry", "tcp://*:7002", "ZeroMQ PUB endpoint for the telemetry channel")

	rootCmd.PersistentFlags().StringVar(&wsCommandURL, "ws-command", "", "WebSocket URL for the command channel (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsTelemetryURL, "ws-telemetry", "", "WebSocket URL for the telemetry channel")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
