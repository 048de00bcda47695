// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/relaystat/pkg/relay"
	"github.com/spf13/cobra"
)

var sendCRC bool

var sendCmd = &cobra.Command{
	Use:   "send <text...>",
	Short: "Send a raw console command to the selected device",
	Long: `Send a console command and print the reply.

Text containing '+' is sent as ASCII (AT-style commands) and the reply is
printed as text. Anything else is read as whitespace-separated hex bytes and
the reply is printed as hex.

With --crc the Modbus CRC is appended to the bytes before sending.

Examples:
  relaystat send 01 03 00 01 00 01 --crc
  relaystat send "AT+O1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().BoolVar(&sendCRC, "crc", false, "Append the Modbus CRC before sending")
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	s, desc, err := selectedDevice(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Device: %s\n\n", desc)

	ex, err := s.SendCommand(text, sendCRC)
	now := clock(time.Now())
	if !reachedWire(ex.Exchange, err) {
		return err
	}

	fmt.Printf("[%s] Command sent: %s (%s)\n", now, strings.TrimSpace(relay.FormatHex(ex.Sent)), ex.Payload.Mode)
	if err != nil {
		fmt.Printf("[%s] Received: %s\n", now, msgReadError)
		return err
	}
	fmt.Printf("[%s] Received: %s\n", now, ex.Decoded)
	return nil
}
