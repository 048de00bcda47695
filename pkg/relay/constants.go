// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package relay implements the RS-485 relay module frame format.
//
// Relay modules speak a Modbus-RTU-like dialect: every request is an
// 8-byte frame addressed to unit 0x01 with a register address equal to the
// one-based relay number, terminated by a CRC-16/MODBUS checksum sent low
// byte first. This package builds request frames, computes checksums and
// interprets status replies.
package relay

// Frame layout
const (
	UnitAddress = 0x01

	FrameBodySize = 6 // unit, function, addr_hi, addr_lo, data_hi, data_lo
	ChecksumSize  = 2
	FrameSize     = FrameBodySize + ChecksumSize

	StatusReplySize = 7
)

// Function codes
const (
	FuncReadStatus = 0x03 // Read holding register
	FuncControl    = 0x06 // Write single register
)

// Exception responses set the high bit of the function code
const ExceptionFlag = 0x80

// Action codes carried in data_hi of a control frame
const (
	actionCodeOpen  = 0x01
	actionCodeClose = 0x02
)

// Known status replies
var (
	ReplyRelayOpen   = [StatusReplySize]byte{0x01, 0x03, 0x02, 0x00, 0x01, 0x79, 0x84}
	ReplyRelayClosed = [StatusReplySize]byte{0x01, 0x03, 0x02, 0x00, 0x00, 0xB8, 0x44}
)

// MaxRelayID is the highest zero-based relay index whose wire address
// (RelayID+1) still fits in a single byte.
const MaxRelayID = 0xFE
