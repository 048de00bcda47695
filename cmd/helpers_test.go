// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/relaystat/pkg/session"
)

// replyPort answers every write with reply, then times out
type replyPort struct {
	reply   []byte
	pending []byte
}

func (p *replyPort) Read(b []byte) (int, error) {
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *replyPort) Write(b []byte) (int, error) {
	p.pending = append([]byte(nil), p.reply...)
	return len(b), nil
}

func (p *replyPort) Close() error                         { return nil }
func (p *replyPort) SetReadTimeout(t time.Duration) error { return nil }

// scriptedOpener hands out reply ports, taking the reply for each open from
// a shared script; the last reply repeats
type scriptedOpener struct {
	mu      sync.Mutex
	replies [][]byte
	opens   int
}

func (o *scriptedOpener) Open(name string) (session.Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var reply []byte
	if len(o.replies) > 0 {
		i := o.opens
		if i >= len(o.replies) {
			i = len(o.replies) - 1
		}
		reply = o.replies[i]
	}
	o.opens++
	return &replyPort{reply: reply}, nil
}

func (o *scriptedOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

func testSession(t *testing.T, opener session.Opener, names ...string) *session.Session {
	t.Helper()
	enum := func() (session.Directory, error) {
		dir := make(session.Directory, len(names))
		for i, n := range names {
			dir[i] = session.PortDescriptor{Name: n}
		}
		return dir, nil
	}
	s := session.New(enum, opener, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if _, err := s.Refresh(); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	return s
}
