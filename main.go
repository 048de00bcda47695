// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Relaystat - RS-485 Relay Module Controller
//
// A CLI tool for switching and querying relay modules on an RS-485 bus,
// either through a local serial adapter or a WebSocket bridge.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/relaystat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
