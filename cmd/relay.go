// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/relaystat/pkg/session"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Switch or query a relay on the selected device",
	Long: `Send relay control and status frames to the selected device.

Relay numbers start at 1. Every command writes one frame, reads back whatever
the module answers within the serial timeout and prints both.

Examples:
  relaystat relay open 1
  relaystat relay close 3 -d 1
  relaystat relay status 2
  relaystat relay set 4 off

Exit codes:
  0 - Module answered (status commands: with a recognized state)
  1 - No answer, unrecognized status, or no devices found
  2 - Device could not be opened`,
}

var relayOpenCmd = &cobra.Command{
	Use:   "open <relay>",
	Short: "Open (switch on) a relay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelayControl(args[0], "open")
	},
}

var relayCloseCmd = &cobra.Command{
	Use:   "close <relay>",
	Short: "Close (switch off) a relay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelayControl(args[0], "close")
	},
}

var relaySetCmd = &cobra.Command{
	Use:   "set <relay> <action>",
	Short: "Switch a relay, action is open/on/1 or close/off/2",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelayControl(args[0], args[1])
	},
}

var relayStatusCmd = &cobra.Command{
	Use:   "status <relay>",
	Short: "Read the state of a relay",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelayStatus,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.AddCommand(relayOpenCmd, relayCloseCmd, relaySetCmd, relayStatusCmd)
}

func runRelayControl(relayArg, actionArg string) error {
	r, action, err := parseControlArgs(relayArg, actionArg)
	if err != nil {
		return err
	}

	s, desc, err := selectedDevice(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Device: %s\n", desc)
	fmt.Printf("Relay %d: %s\n\n", r.Number(), action)

	ex, err := s.SetRelay(r, action)
	printExchange(ex, err)
	return err
}

func runRelayStatus(cmd *cobra.Command, args []string) error {
	r, err := parseRelayArg(args[0])
	if err != nil {
		return err
	}

	s, desc, err := selectedDevice(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Device: %s\n\n", desc)

	ex, err := s.ReadStatus(r)
	printExchange(ex.Exchange, err)
	if err != nil {
		return err
	}

	line := statusLine(r, ex.Status)
	fmt.Printf("[%s] %s\n", clock(time.Now()), line)
	if !ex.Status.Known() {
		return withExitCode(exitDevice, errors.New(line))
	}
	return nil
}

// printExchange prints the Sent/Received lines of a transaction and any
// response anomalies
func printExchange(ex session.Exchange, err error) {
	now := clock(time.Now())
	if reachedWire(ex, err) {
		fmt.Printf("[%s] %s\n", now, sentLine(ex.Sent))
		fmt.Printf("[%s] %s\n", now, receivedLine(ex.Received, err))
	}
	for _, w := range warningLines(ex.Warnings) {
		fmt.Printf("[%s] \033[1;33mWARNING:\033[0m %s\n", now, w)
	}
}
