// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"errors"
	"sync"
	"time"
)

// fakePort is an in-memory Port. Reads return queued chunks in order, then
// readErr, or (0, nil) to simulate a timeout.
type fakePort struct {
	mu       sync.Mutex
	echo     bool
	chunks   [][]byte
	readErr  error
	writeErr error
	written  [][]byte
	closed   bool
	timeout  time.Duration
	reads    int
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if len(f.chunks) > 0 {
		chunk := f.chunks[0]
		n := copy(p, chunk)
		if n < len(chunk) {
			f.chunks[0] = chunk[n:]
		} else {
			f.chunks = f.chunks[1:]
		}
		return n, nil
	}
	if f.readErr != nil {
		return 0, f.readErr
	}
	return 0, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), p...))
	if f.echo {
		f.chunks = append(f.chunks, append([]byte(nil), p...))
	}
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeout = t
	return nil
}

// fakeOpener hands out ports built by a factory and remembers them
type fakeOpener struct {
	mu      sync.Mutex
	factory func(name string) (*fakePort, error)
	opened  []string
	ports   []*fakePort
}

func (o *fakeOpener) Open(name string) (Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opened = append(o.opened, name)
	p, err := o.factory(name)
	if err != nil {
		return nil, err
	}
	o.ports = append(o.ports, p)
	return p, nil
}

func (o *fakeOpener) last() *fakePort {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.ports) == 0 {
		return nil
	}
	return o.ports[len(o.ports)-1]
}

func echoOpener() *fakeOpener {
	return &fakeOpener{factory: func(string) (*fakePort, error) {
		return &fakePort{echo: true}, nil
	}}
}

func replyOpener(reply ...[]byte) *fakeOpener {
	return &fakeOpener{factory: func(string) (*fakePort, error) {
		chunks := make([][]byte, len(reply))
		for i, r := range reply {
			chunks[i] = append([]byte(nil), r...)
		}
		return &fakePort{chunks: chunks}, nil
	}}
}

func failingOpener(err error) *fakeOpener {
	return &fakeOpener{factory: func(string) (*fakePort, error) {
		return nil, err
	}}
}

func staticEnumerator(names ...string) Enumerator {
	return func() (Directory, error) {
		dir := make(Directory, len(names))
		for i, n := range names {
			dir[i] = PortDescriptor{Name: n}
		}
		return dir, nil
	}
}

// timeoutError mimics net.Error timeouts from deadline-based transports
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var errDisconnected = errors.New("device disconnected")
