// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Fixed line parameters for relay modules
const (
	DefaultBaudRate    = 9600
	DefaultTimeout     = 100 * time.Millisecond
	DefaultMaxResponse = 256 // Modbus RTU maximum ADU size
)

// Port is an open transport to one device. A read that times out returns
// (0, nil) or an error whose Timeout method reports true.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
	SetReadTimeout(t time.Duration) error
}

// Opener opens a port by name
type Opener interface {
	Open(name string) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(name string) (Port, error)

// Open calls f(name)
func (f OpenerFunc) Open(name string) (Port, error) {
	return f(name)
}

// SerialOpener opens serial ports at 8 data bits, no parity, one stop bit
type SerialOpener struct {
	BaudRate int
	Timeout  time.Duration
}

// NewSerialOpener returns an opener using the relay module defaults
// (9600 baud, 100ms timeout)
func NewSerialOpener() SerialOpener {
	return SerialOpener{BaudRate: DefaultBaudRate, Timeout: DefaultTimeout}
}

// Open opens the named serial port
func (o SerialOpener) Open(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", name, err)
	}

	if err := port.SetReadTimeout(o.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %v", name, err)
	}

	return port, nil
}

// IsBridgeURL reports whether name addresses a WebSocket bridge
func IsBridgeURL(name string) bool {
	return strings.HasPrefix(name, "ws://") || strings.HasPrefix(name, "wss://")
}

// MuxOpener routes ws:// and wss:// names to Bridge and everything else to
// Serial
type MuxOpener struct {
	Serial Opener
	Bridge Opener
}

// Open opens name with the matching opener
func (m MuxOpener) Open(name string) (Port, error) {
	if IsBridgeURL(name) {
		if m.Bridge == nil {
			return nil, fmt.Errorf("no bridge transport configured for %s", name)
		}
		return m.Bridge.Open(name)
	}
	if m.Serial == nil {
		return nil, fmt.Errorf("no serial transport configured for %s", name)
	}
	return m.Serial.Open(name)
}
