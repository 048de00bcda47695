// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package relay

import "bytes"

// RelayState is the decoded result of a status read
type RelayState int

const (
	StateUnrecognized RelayState = iota
	StateOpen
	StateClosed
)

func (s RelayState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNRECOGNIZED"
	}
}

// StatusResult pairs the decoded state with the raw reply. Raw is always
// populated so unrecognized replies can be shown to the operator.
type StatusResult struct {
	State RelayState
	Raw   []byte
}

// Known reports whether the reply matched one of the relay state constants
func (r StatusResult) Known() bool {
	return r.State != StateUnrecognized
}

// InterpretStatusResponse compares a status reply byte-for-byte against the
// known open and closed replies. Anything else, including replies of a
// different length, is StateUnrecognized; that is not an error.
func InterpretStatusResponse(response []byte) StatusResult {
	raw := append([]byte(nil), response...)

	switch {
	case bytes.Equal(response, ReplyRelayOpen[:]):
		return StatusResult{State: StateOpen, Raw: raw}
	case bytes.Equal(response, ReplyRelayClosed[:]):
		return StatusResult{State: StateClosed, Raw: raw}
	default:
		return StatusResult{State: StateUnrecognized, Raw: raw}
	}
}
