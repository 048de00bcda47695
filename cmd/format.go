// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/relaystat/pkg/relay"
	"github.com/Thermoquad/relaystat/pkg/session"
)

const (
	msgReadError    = "Error reading data!"
	msgUnrecognized = "Unrecognized data!"
)

// clock formats a log timestamp
func clock(t time.Time) string {
	return t.Format("15:04:05")
}

// sentLine renders the bytes written to a device
func sentLine(b []byte) string {
	return "Sent: " + strings.TrimSpace(relay.FormatHex(b))
}

// receivedLine renders the bytes read back, or the read error message
func receivedLine(b []byte, err error) string {
	if err != nil {
		return fmt.Sprintf("Received: %s (%v)", msgReadError, err)
	}
	return "Received: " + strings.TrimSpace(relay.FormatHex(b))
}

// statusLine renders a decoded status reply for a one-based relay number
func statusLine(r relay.RelayID, result relay.StatusResult) string {
	if !result.Known() {
		return fmt.Sprintf("%s : %s", msgUnrecognized, relay.FormatBytes(result.Raw))
	}
	return fmt.Sprintf("Relay %d: %s", r.Number(), result.State)
}

// warningLines renders response anomalies, one per line
func warningLines(warnings []relay.ValidationError) []string {
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, fmt.Sprintf("%s: %s", w.Type, w.Message))
	}
	return lines
}

// directoryLines renders the port listing with zero-based indexes
func directoryLines(dir session.Directory, selected int) []string {
	if dir.Len() == 0 {
		return []string{session.MsgNoDevices}
	}
	lines := make([]string, dir.Len())
	for i, d := range dir {
		marker := " "
		if i == selected {
			marker = "*"
		}
		lines[i] = fmt.Sprintf("%s %2d  %s", marker, i, d)
	}
	return lines
}

// reachedWire reports whether a transaction got as far as writing its
// request
func reachedWire(ex session.Exchange, err error) bool {
	if len(ex.Sent) == 0 {
		return false
	}
	return !errors.Is(err, session.ErrPortUnavailable) && !errors.Is(err, session.ErrNoSuchDevice)
}

// parseRelayArg converts a one-based relay number from the command line
func parseRelayArg(arg string) (relay.RelayID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", relay.ErrInvalidRelay, arg)
	}
	return relay.RelayFromNumber(n)
}

// parseControlArgs parses the relay number and action of a control command
func parseControlArgs(relayArg, actionArg string) (relay.RelayID, relay.Action, error) {
	r, err := parseRelayArg(relayArg)
	if err != nil {
		return 0, 0, err
	}
	action, err := relay.ParseAction(actionArg)
	if err != nil {
		return 0, 0, err
	}
	return r, action, nil
}
