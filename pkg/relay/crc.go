// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package relay

import "github.com/sigurn/crc16"

var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// CRC16 computes the CRC-16/MODBUS checksum (poly 0xA001 reflected, init 0xFFFF)
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// Checksum returns the CRC-16/MODBUS of frame split into the two bytes that
// go on the wire, low byte first.
func Checksum(frame []byte) (lo, hi byte) {
	crc := CRC16(frame)
	return byte(crc & 0xFF), byte(crc >> 8)
}

// AppendChecksum returns a new slice holding frame followed by its checksum.
// The input slice is never modified.
func AppendChecksum(frame []byte) []byte {
	out := make([]byte, len(frame), len(frame)+ChecksumSize)
	copy(out, frame)
	lo, hi := Checksum(frame)
	return append(out, lo, hi)
}

// VerifyChecksum reports whether the last two bytes of frame are the
// checksum of everything before them.
func VerifyChecksum(frame []byte) bool {
	if len(frame) < ChecksumSize+1 {
		return false
	}
	body := frame[:len(frame)-ChecksumSize]
	lo, hi := Checksum(body)
	return frame[len(frame)-2] == lo && frame[len(frame)-1] == hi
}
