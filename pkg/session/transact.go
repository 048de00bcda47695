// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// readChunk is the size of a single read from the port
const readChunk = 64

// Open resolves index against dir and opens that port. Out-of-range
// indexes fail with ErrNoSuchDevice; transport failures wrap
// ErrPortUnavailable with the reason. There is no retry.
func Open(dir Directory, index int, opener Opener) (Port, error) {
	desc, err := dir.At(index)
	if err != nil {
		return nil, err
	}

	port, err := opener.Open(desc.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPortUnavailable, err)
	}
	return port, nil
}

// Probe opens and immediately closes the port at index to report whether
// it is reachable. It never leaves a port open.
func Probe(dir Directory, index int, opener Opener) (bool, string) {
	port, err := Open(dir, index, opener)
	if err != nil {
		return false, err.Error()
	}
	port.Close()
	return true, MsgConnected
}

// Transact writes request in full and then reads until the port times out,
// the peer closes the stream, or maxResponse bytes have arrived.
//
// Any bytes received count as success, even if a later read fails. Only a
// transaction that ends with zero bytes fails: with ErrNoResponse on
// timeout or end of stream, or with the read error otherwise.
func Transact(port Port, request []byte, maxResponse int) ([]byte, error) {
	if len(request) == 0 {
		return nil, ErrEmptyRequest
	}
	if maxResponse <= 0 {
		maxResponse = DefaultMaxResponse
	}

	if _, err := port.Write(request); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	response := make([]byte, 0, readChunk)
	buf := make([]byte, readChunk)
	var readErr error

	for len(response) < maxResponse {
		want := buf
		if remaining := maxResponse - len(response); remaining < len(want) {
			want = want[:remaining]
		}

		n, err := port.Read(want)
		response = append(response, want[:n]...)

		if err != nil {
			if !isTimeout(err) && !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		if n == 0 {
			// Timeout
			break
		}
	}

	if len(response) == 0 {
		if readErr != nil {
			return nil, fmt.Errorf("read failed: %w", readErr)
		}
		return nil, ErrNoResponse
	}
	return response, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
