// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/relaystat/pkg/relay"
)

// Statistics tracks transaction outcomes for a session
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Transactions   uint64
	Successful     uint64
	NoResponse     uint64
	Failures       uint64 // open, write and read failures
	ShortResponses uint64
	Anomalies      uint64 // all validation warnings, including short responses
	StatusReads    uint64
	Unrecognized   uint64
	BytesSent      uint64
	BytesReceived  uint64

	// Rates (calculated)
	TransactionRate float64 // transactions/sec
	ErrorRate       float64 // failed transactions/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one transaction
func (s *Statistics) Update(sent, received int, err error, warnings []relay.ValidationError) {
	s.Transactions++
	s.BytesSent += uint64(sent)
	s.BytesReceived += uint64(received)
	s.LastUpdateTime = time.Now()

	if err != nil {
		if errors.Is(err, ErrNoResponse) {
			s.NoResponse++
		} else {
			s.Failures++
		}
		return
	}

	s.Successful++
	for _, w := range warnings {
		s.Anomalies++
		if w.Type == relay.AnomalyShortResponse {
			s.ShortResponses++
		}
	}
}

// RecordStatus records the outcome of interpreting a status reply
func (s *Statistics) RecordStatus(result relay.StatusResult) {
	s.StatusReads++
	if !result.Known() {
		s.Unrecognized++
	}
}

// CalculateRates calculates transaction and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.TransactionRate = float64(s.Transactions) / elapsed
		s.ErrorRate = float64(s.NoResponse+s.Failures) / elapsed
	}
}

// SuccessPercent returns the share of transactions that received a reply
func (s *Statistics) SuccessPercent() float64 {
	if s.Transactions == 0 {
		return 0
	}
	return float64(s.Successful) * 100.0 / float64(s.Transactions)
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Transactions:    %8d\n", s.Transactions)
	result += fmt.Sprintf("Successful:      %8d (%.1f%%)\n", s.Successful, s.SuccessPercent())

	if s.NoResponse > 0 {
		result += fmt.Sprintf("No Response:     %8d\n", s.NoResponse)
	}
	if s.Failures > 0 {
		result += fmt.Sprintf("Failures:        %8d\n", s.Failures)
	}
	if s.Anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d (short: %d)\n", s.Anomalies, s.ShortResponses)
	}
	if s.StatusReads > 0 {
		result += fmt.Sprintf("Status Reads:    %8d (unrecognized: %d)\n", s.StatusReads, s.Unrecognized)
	}

	result += fmt.Sprintf("Bytes:           %8d sent, %d received\n", s.BytesSent, s.BytesReceived)
	result += fmt.Sprintf("Rate:            %8.2f tx/s\n", s.TransactionRate)

	return result
}
