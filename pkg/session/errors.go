// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import "errors"

// Operation errors. Each one is terminal for the operation that raised it;
// nothing is retried automatically.
var (
	// ErrNoSuchDevice is returned when a device index is out of range for
	// the current directory snapshot
	ErrNoSuchDevice = errors.New("no such device")

	// ErrPortUnavailable is returned when the transport fails to open
	// (busy, permission denied, removed)
	ErrPortUnavailable = errors.New("port unavailable")

	// ErrNoResponse is returned when a transaction times out without
	// receiving a single byte
	ErrNoResponse = errors.New("no response")

	// ErrEnumeration is returned when the platform port listing fails.
	// An empty directory is not an error.
	ErrEnumeration = errors.New("port enumeration failed")

	// ErrEmptyRequest is returned when asked to transmit zero bytes
	ErrEmptyRequest = errors.New("empty request")
)

// Messages for the presentation layer
const (
	MsgConnected = "Connected!"
	MsgNoDevices = "Not found devices!"
)
