// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package relay

import (
	"fmt"
	"strings"
)

// FormatHex renders bytes as "0xHH " tokens, uppercase, each followed by a
// space. An empty input yields an empty string.
func FormatHex(data []byte) string {
	var s strings.Builder
	s.Grow(len(data) * 5)
	for _, b := range data {
		fmt.Fprintf(&s, "0x%02X ", b)
	}
	return s.String()
}

// FormatBytes renders bytes as a bracketed list, e.g. "[01, 03, 02]"
func FormatBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatFunction returns the human-readable name for a function code
func FormatFunction(code byte) string {
	switch code {
	case FuncReadStatus:
		return "READ_STATUS"
	case FuncControl:
		return "CONTROL"
	}
	if code&ExceptionFlag != 0 {
		return "EXCEPTION(" + FormatFunction(code&^ExceptionFlag) + ")"
	}
	return "UNKNOWN"
}

// FormatFrame describes a request frame in one line
func FormatFrame(frame []byte) string {
	if len(frame) < FrameSize {
		return fmt.Sprintf("SHORT FRAME len=%d %s", len(frame), FormatBytes(frame))
	}

	fn := frame[1]
	result := fmt.Sprintf("%s (0x%02X) unit=%d relay=%d", FormatFunction(fn), fn, frame[0], frame[3])

	switch fn {
	case FuncControl:
		result += fmt.Sprintf(" action=%s", Action(frame[4]))
	case FuncReadStatus:
		result += fmt.Sprintf(" count=%d", uint16(frame[4])<<8|uint16(frame[5]))
	}

	crc := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	result += fmt.Sprintf(" crc=0x%04X", crc)
	if !VerifyChecksum(frame) {
		result += " (bad crc)"
	}
	return result
}
