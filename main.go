// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics
//
// Uplink - robot-side remote control daemon

package main

import (
	"os"

	"github.com/kelpie-robotics/uplink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
