// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package session owns the device directory, the selected device and the
// write-then-read transactions performed against it.
//
// A Session is a single-writer object: refresh, selection and transactions
// are serialized by one mutex, so a transaction never observes a selection
// index that is stale relative to the directory. A fresh port is opened
// for every transaction and closed when it ends.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Thermoquad/relaystat/pkg/console"
	"github.com/Thermoquad/relaystat/pkg/relay"
)

// Exchange is the outcome of one transaction
type Exchange struct {
	Port     PortDescriptor
	Sent     []byte
	Received []byte
	Warnings []relay.ValidationError
	Duration time.Duration
}

// StatusExchange is a status-read transaction and its decoded result
type StatusExchange struct {
	Exchange
	Status relay.StatusResult
}

// CommandExchange is a console transaction and its decoded reply
type CommandExchange struct {
	Exchange
	Text    string
	Payload console.TaggedPayload
	Decoded string
}

// Session holds the directory snapshot and selection for one operator
type Session struct {
	mu sync.Mutex

	enumerate   Enumerator
	opener      Opener
	log         *slog.Logger
	maxResponse int

	directory Directory
	selected  int

	stats *Statistics
	guard Guard
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for transaction tracing
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithMaxResponse caps the number of bytes read per transaction
func WithMaxResponse(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxResponse = n
		}
	}
}

// New creates a session with an empty directory. Call Refresh to populate
// it.
func New(enum Enumerator, opener Opener, opts ...Option) *Session {
	s := &Session{
		enumerate:   enum,
		opener:      opener,
		log:         slog.Default(),
		maxResponse: DefaultMaxResponse,
		stats:       NewStatistics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh re-enumerates ports and replaces the directory wholesale,
// resetting the selection to 0. On enumeration failure the directory is
// emptied so no stale index can reach a device.
func (s *Session) Refresh() (Directory, error) {
	dir, err := s.enumerate()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = 0
	if err != nil {
		s.directory = nil
		s.log.Warn("port enumeration failed", "error", err)
		if !errors.Is(err, ErrEnumeration) {
			err = fmt.Errorf("%w: %v", ErrEnumeration, err)
		}
		return nil, err
	}

	s.directory = append(Directory(nil), dir...)
	s.log.Debug("directory refreshed", "ports", s.directory.Names())
	return append(Directory(nil), s.directory...), nil
}

// Directory returns a copy of the current directory snapshot
func (s *Session) Directory() Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Directory(nil), s.directory...)
}

// Select changes the selected device
func (s *Session) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.directory.At(index); err != nil {
		return err
	}
	s.selected = index
	return nil
}

// Selected returns the selected index and its descriptor
func (s *Session) Selected() (int, PortDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc, err := s.directory.At(s.selected)
	return s.selected, desc, err
}

// Probe reports whether the selected device can be opened
func (s *Session) Probe() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, msg := Probe(s.directory, s.selected, s.opener)
	if !ok {
		s.log.Warn("probe failed", "index", s.selected, "error", msg)
	}
	return ok, msg
}

// SelectAndProbe changes the selected device and checks that it opens while
// holding the session lock across both steps
func (s *Session) SelectAndProbe(index int) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.directory.At(index); err != nil {
		return false, err.Error()
	}
	s.selected = index

	ok, msg := Probe(s.directory, s.selected, s.opener)
	if !ok {
		s.log.Warn("selected device did not open", "index", s.selected, "error", msg)
	}
	return ok, msg
}

// Guard returns the notification guard shared by this session's listeners
func (s *Session) Guard() *Guard {
	return &s.guard
}

// Stats returns a snapshot of the session statistics
func (s *Session) Stats() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *s.stats
	snapshot.CalculateRates()
	return snapshot
}

// Exchange opens the selected device, transacts request and closes it.
// The returned Exchange carries whatever was sent even when err is set.
func (s *Session) Exchange(request []byte) (Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange(request)
}

// exchange must be called with s.mu held
func (s *Session) exchange(request []byte) (Exchange, error) {
	ex := Exchange{Sent: append([]byte(nil), request...)}

	desc, err := s.directory.At(s.selected)
	if err != nil {
		return ex, err
	}
	ex.Port = desc

	port, err := Open(s.directory, s.selected, s.opener)
	if err != nil {
		s.stats.Update(0, 0, err, nil)
		s.log.Warn("open failed", "port", desc.Name, "error", err)
		return ex, err
	}
	defer port.Close()

	start := time.Now()
	response, err := Transact(port, request, s.maxResponse)
	ex.Duration = time.Since(start)

	if err != nil {
		s.stats.Update(len(request), 0, err, nil)
		s.log.Warn("transaction failed",
			"port", desc.Name,
			"sent", relay.FormatHex(request),
			"duration", ex.Duration,
			"error", err)
		return ex, err
	}

	ex.Received = response
	ex.Warnings = relay.ValidateResponse(request, response)
	s.stats.Update(len(request), len(response), nil, ex.Warnings)

	s.log.Debug("transaction",
		"port", desc.Name,
		"frame", relay.FormatFrame(request),
		"sent", relay.FormatHex(request),
		"received", relay.FormatHex(response),
		"duration", ex.Duration)
	for _, w := range ex.Warnings {
		s.log.Warn("response anomaly", "port", desc.Name, "type", w.Type.String(), "message", w.Message)
	}

	return ex, nil
}

// SetRelay sends a control frame switching relay and reads back the reply
func (s *Session) SetRelay(r relay.RelayID, action relay.Action) (Exchange, error) {
	return s.Exchange(relay.BuildControlFrame(r, action))
}

// ReadStatus queries relay and interprets the reply. An unrecognized reply
// is returned as a result, not an error.
func (s *Session) ReadStatus(r relay.RelayID) (StatusExchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.exchange(relay.BuildStatusFrame(r))
	if err != nil {
		return StatusExchange{Exchange: ex}, err
	}

	status := relay.InterpretStatusResponse(ex.Received)
	s.stats.RecordStatus(status)
	if !status.Known() {
		s.log.Info("unrecognized status reply", "relay", r.Number(), "data", relay.FormatBytes(status.Raw))
	}
	return StatusExchange{Exchange: ex, Status: status}, nil
}

// SendCommand parses console text, optionally appends the frame checksum,
// transacts it and decodes the reply in the payload's mode.
func (s *Session) SendCommand(text string, withChecksum bool) (CommandExchange, error) {
	payload, err := console.Parse(text)
	if err != nil {
		return CommandExchange{Text: text}, err
	}
	if withChecksum {
		payload = payload.WithChecksum()
	}

	ex, err := s.Exchange(payload.Bytes)
	result := CommandExchange{Exchange: ex, Text: text, Payload: payload}
	if err != nil {
		return result, err
	}

	result.Decoded = payload.Decode(ex.Received)
	return result, nil
}
