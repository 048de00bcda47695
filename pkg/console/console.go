// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package console translates operator-typed command text into wire bytes
// and renders device replies back into text.
//
// Text containing a '+' is treated as an AT-style ASCII command and sent
// verbatim. Everything else is a whitespace-separated list of hex bytes.
// The '+' rule is a heuristic kept for compatibility with existing relay
// firmware tooling, not a grammar: a hex command cannot contain '+', but
// an ASCII command without one will be rejected as invalid hex.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/relaystat/pkg/relay"
)

// Mode selects how a payload and its reply are interpreted
type Mode int

const (
	ModeModbus Mode = iota
	ModeASCII
)

func (m Mode) String() string {
	switch m {
	case ModeASCII:
		return "ASCII"
	case ModeModbus:
		return "MODBUS"
	default:
		return "UNKNOWN"
	}
}

// asciiMarker switches Parse into ASCII mode
const asciiMarker = "+"

// ErrInvalidHexToken is returned when a token is not a hex byte
var ErrInvalidHexToken = errors.New("invalid hex token")

// InvalidHexTokenError reports the offending token and its position
type InvalidHexTokenError struct {
	Token string
	Index int
}

func (e *InvalidHexTokenError) Error() string {
	return fmt.Sprintf("%v: %q at position %d", ErrInvalidHexToken, e.Token, e.Index)
}

func (e *InvalidHexTokenError) Unwrap() error {
	return ErrInvalidHexToken
}

// TaggedPayload is a request payload together with the mode it was parsed in
type TaggedPayload struct {
	Mode  Mode
	Bytes []byte
}

// WithChecksum returns a copy of the payload with the relay frame checksum
// appended. The mode is preserved.
func (p TaggedPayload) WithChecksum() TaggedPayload {
	return TaggedPayload{Mode: p.Mode, Bytes: relay.AppendChecksum(p.Bytes)}
}

// Decode renders a reply to this payload in the payload's mode
func (p TaggedPayload) Decode(response []byte) string {
	return DecodeResponse(p.Mode, response)
}

// Parse converts command text into a tagged payload. No partial result is
// returned on error.
func Parse(text string) (TaggedPayload, error) {
	if strings.Contains(text, asciiMarker) {
		// Character-by-character: each rune is truncated to its low byte
		buf := make([]byte, 0, len(text))
		for _, r := range text {
			buf = append(buf, byte(r))
		}
		return TaggedPayload{Mode: ModeASCII, Bytes: buf}, nil
	}

	tokens := strings.Fields(text)
	buf := make([]byte, 0, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return TaggedPayload{}, &InvalidHexTokenError{Token: tok, Index: i}
		}
		buf = append(buf, byte(v))
	}
	return TaggedPayload{Mode: ModeModbus, Bytes: buf}, nil
}

// DecodeResponse renders reply bytes for display. ASCII replies map each
// byte to the character with that code, unescaped. MODBUS replies are a
// "0xHH " hex dump.
func DecodeResponse(mode Mode, response []byte) string {
	if mode == ModeASCII {
		var s strings.Builder
		s.Grow(len(response))
		for _, b := range response {
			s.WriteRune(rune(b))
		}
		return s.String()
	}
	return relay.FormatHex(response)
}
