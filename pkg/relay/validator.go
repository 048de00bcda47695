// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package relay

import "fmt"

// AnomalyType represents different kinds of response anomalies
type AnomalyType int

const (
	AnomalyShortResponse AnomalyType = iota
	AnomalyLengthMismatch
	AnomalyUnitMismatch
	AnomalyFunctionMismatch
	AnomalyException
	AnomalyCRCMismatch
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyShortResponse:
		return "SHORT_RESPONSE"
	case AnomalyLengthMismatch:
		return "LENGTH_MISMATCH"
	case AnomalyUnitMismatch:
		return "UNIT_MISMATCH"
	case AnomalyFunctionMismatch:
		return "FUNCTION_MISMATCH"
	case AnomalyException:
		return "EXCEPTION"
	case AnomalyCRCMismatch:
		return "CRC_MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// ValidationError is a non-fatal warning about a response. A response with
// warnings is still a successful transaction.
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ExpectedResponseLength returns the reply length a well-behaved module
// sends for request, or 0 when the request is not a relay frame.
func ExpectedResponseLength(request []byte) int {
	if len(request) < 2 {
		return 0
	}
	switch request[1] {
	case FuncReadStatus:
		return StatusReplySize
	case FuncControl:
		return FrameSize // write-single-register echoes the request
	}
	return 0
}

// ValidateResponse sanity-checks a reply against the request that caused
// it. Only requests using the relay function codes are checked; anything
// else returns no warnings.
func ValidateResponse(request, response []byte) []ValidationError {
	expected := ExpectedResponseLength(request)
	if expected == 0 || len(response) == 0 {
		return nil
	}

	errors := []ValidationError{}

	if response[0] != request[0] {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnitMismatch,
			Message: fmt.Sprintf("Reply unit %d does not match request unit %d", response[0], request[0]),
			Details: map[string]interface{}{"unit": response[0], "expected": request[0]},
		})
	}

	if len(response) >= 2 && response[1] != request[1] {
		if response[1] == request[1]|ExceptionFlag {
			code := -1
			if len(response) >= 3 {
				code = int(response[2])
			}
			errors = append(errors, ValidationError{
				Type:    AnomalyException,
				Message: fmt.Sprintf("Device returned exception code %d for %s", code, FormatFunction(request[1])),
				Details: map[string]interface{}{"code": code},
			})
			// Exception replies are 5 bytes; length checks below do not apply
			return append(errors, validateCRC(response)...)
		}
		errors = append(errors, ValidationError{
			Type:    AnomalyFunctionMismatch,
			Message: fmt.Sprintf("Reply function 0x%02X does not match request 0x%02X", response[1], request[1]),
			Details: map[string]interface{}{"function": response[1], "expected": request[1]},
		})
	}

	if request[1] == FuncReadStatus && len(response) >= 3 {
		// Byte count field decides the real length: unit, func, count, data..., crc
		expected = 3 + int(response[2]) + ChecksumSize
	}

	switch {
	case len(response) < expected:
		errors = append(errors, ValidationError{
			Type:    AnomalyShortResponse,
			Message: fmt.Sprintf("Reply too short: %d bytes (expected %d)", len(response), expected),
			Details: map[string]interface{}{"length": len(response), "expected": expected},
		})
	case len(response) > expected:
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("Reply too long: %d bytes (expected %d)", len(response), expected),
			Details: map[string]interface{}{"length": len(response), "expected": expected},
		})
	}

	return append(errors, validateCRC(response)...)
}

func validateCRC(response []byte) []ValidationError {
	if len(response) < 4 || VerifyChecksum(response) {
		return nil
	}
	body := response[:len(response)-ChecksumSize]
	received := uint16(response[len(response)-2]) | uint16(response[len(response)-1])<<8
	calculated := CRC16(body)
	return []ValidationError{{
		Type:    AnomalyCRCMismatch,
		Message: fmt.Sprintf("CRC mismatch: received 0x%04X, calculated 0x%04X", received, calculated),
		Details: map[string]interface{}{"received": received, "calculated": calculated},
	}}
}
