// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the selected device can be opened",
	Long: `Open and immediately close the selected device.

Nothing is written to the bus. A successful probe only proves the port can be
opened; use "relay status" to check that a relay module answers.

Exit codes:
  0 - Device opened
  1 - No devices found
  2 - Device could not be opened`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	s, desc, err := selectedDevice(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Relaystat - Probe\n")
	fmt.Printf("Device: %s\n\n", desc)

	ok, msg := s.Probe()
	if !ok {
		return withExitCode(exitConnection, errors.New(msg))
	}
	fmt.Printf("[%s] %s\n", clock(time.Now()), msg)
	return nil
}
