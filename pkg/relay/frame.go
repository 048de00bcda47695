// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package relay

import (
	"errors"
	"fmt"
	"strings"
)

// RelayID is the zero-based index of a relay module. The wire address is
// RelayID+1.
type RelayID uint8

// Address returns the one-based register address used on the wire
func (r RelayID) Address() byte {
	return byte(r) + 1
}

// Number returns the one-based relay number shown to operators
func (r RelayID) Number() int {
	return int(r) + 1
}

// ErrInvalidRelay is returned when a relay number cannot be addressed
var ErrInvalidRelay = errors.New("invalid relay number")

// RelayFromNumber converts a one-based relay number, as typed by an
// operator, into a RelayID.
func RelayFromNumber(n int) (RelayID, error) {
	if n < 1 || n > MaxRelayID+1 {
		return 0, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidRelay, n, MaxRelayID+1)
	}
	return RelayID(n - 1), nil
}

// Action is the state change requested by a control frame
type Action uint8

const (
	ActionOpen  Action = actionCodeOpen
	ActionClose Action = actionCodeClose
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "OPEN"
	case ActionClose:
		return "CLOSE"
	default:
		return fmt.Sprintf("ACTION(0x%02X)", uint8(a))
	}
}

// ParseAction accepts the words operators use for relay actions
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "on", "1":
		return ActionOpen, nil
	case "close", "off", "2":
		return ActionClose, nil
	}
	return 0, fmt.Errorf("unknown action %q (use open or close)", s)
}

// BuildControlFrame builds the write-single-register frame that switches a
// relay: [0x01, 0x06, 0x00, relay+1, action, 0x00, crc_lo, crc_hi].
func BuildControlFrame(relay RelayID, action Action) []byte {
	body := []byte{UnitAddress, FuncControl, 0x00, relay.Address(), byte(action), 0x00}
	return AppendChecksum(body)
}

// BuildStatusFrame builds the read-holding-register frame that queries a
// relay: [0x01, 0x03, 0x00, relay+1, 0x00, 0x01, crc_lo, crc_hi].
func BuildStatusFrame(relay RelayID) []byte {
	body := []byte{UnitAddress, FuncReadStatus, 0x00, relay.Address(), 0x00, 0x01}
	return AppendChecksum(body)
}
