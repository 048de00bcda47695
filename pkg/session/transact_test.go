// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Thermoquad/relaystat/pkg/relay"
)

func TestOpen_NoSuchDevice(t *testing.T) {
	opener := echoOpener()
	tests := []struct {
		name  string
		dir   Directory
		index int
	}{
		{"empty directory", Directory{}, 0},
		{"nil directory", nil, 0},
		{"past end", Directory{{Name: "/dev/ttyUSB0"}}, 1},
		{"negative", Directory{{Name: "/dev/ttyUSB0"}}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := Open(tt.dir, tt.index, opener)
			if !errors.Is(err, ErrNoSuchDevice) {
				t.Errorf("Open() error = %v, want ErrNoSuchDevice", err)
			}
			if port != nil {
				t.Error("Open() should not return a port on error")
			}
		})
	}

	if len(opener.opened) != 0 {
		t.Errorf("transport should never be touched for bad indexes, opened %v", opener.opened)
	}
}

func TestOpen_PortUnavailable(t *testing.T) {
	dir := Directory{{Name: "/dev/ttyUSB0"}}
	_, err := Open(dir, 0, failingOpener(errors.New("permission denied")))
	if !errors.Is(err, ErrPortUnavailable) {
		t.Fatalf("Open() error = %v, want ErrPortUnavailable", err)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("reason should be passed through, got %q", err.Error())
	}
}

func TestOpen_ResolvesName(t *testing.T) {
	dir := Directory{{Name: "/dev/ttyUSB0"}, {Name: "/dev/ttyUSB1"}}
	opener := echoOpener()
	if _, err := Open(dir, 1, opener); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if opener.opened[0] != "/dev/ttyUSB1" {
		t.Errorf("opened %q, want /dev/ttyUSB1", opener.opened[0])
	}
}

func TestProbe(t *testing.T) {
	dir := Directory{{Name: "/dev/ttyUSB0"}}

	opener := echoOpener()
	ok, msg := Probe(dir, 0, opener)
	if !ok || msg != MsgConnected {
		t.Errorf("Probe() = (%v, %q), want (true, %q)", ok, msg, MsgConnected)
	}
	if !opener.last().closed {
		t.Error("Probe() must not leave the port open")
	}

	ok, msg = Probe(dir, 0, failingOpener(errors.New("device busy")))
	if ok || !strings.Contains(msg, "device busy") {
		t.Errorf("Probe() = (%v, %q), want failure mentioning the reason", ok, msg)
	}

	ok, _ = Probe(Directory{}, 0, echoOpener())
	if ok {
		t.Error("Probe() on an empty directory should fail")
	}
}

func TestTransact_Echo(t *testing.T) {
	port := &fakePort{echo: true}
	request := relay.BuildControlFrame(0, relay.ActionOpen)

	response, err := Transact(port, request, 0)
	if err != nil {
		t.Fatalf("Transact() failed: %v", err)
	}
	if !bytes.Equal(response, request) {
		t.Errorf("response = % X, want echo % X", response, request)
	}
	if len(port.written) != 1 || !bytes.Equal(port.written[0], request) {
		t.Errorf("written = % X, want the full request once", port.written)
	}
}

func TestTransact_ConcatenatesChunks(t *testing.T) {
	port := &fakePort{chunks: [][]byte{{0x01, 0x03}, {0x02, 0x00, 0x01}, {0x79, 0x84}}}

	response, err := Transact(port, relay.BuildStatusFrame(0), 0)
	if err != nil {
		t.Fatalf("Transact() failed: %v", err)
	}
	if !bytes.Equal(response, relay.ReplyRelayOpen[:]) {
		t.Errorf("response = % X, want % X", response, relay.ReplyRelayOpen)
	}
}

func TestTransact_EndConditions(t *testing.T) {
	tests := []struct {
		name    string
		port    *fakePort
		want    []byte
		wantErr error
	}{
		{
			name:    "silent device times out",
			port:    &fakePort{},
			wantErr: ErrNoResponse,
		},
		{
			name:    "deadline timeout with no data",
			port:    &fakePort{readErr: timeoutError{}},
			wantErr: ErrNoResponse,
		},
		{
			name:    "peer closed with no data",
			port:    &fakePort{readErr: io.EOF},
			wantErr: ErrNoResponse,
		},
		{
			name: "partial data then timeout is success",
			port: &fakePort{chunks: [][]byte{{0x01, 0x03}}},
			want: []byte{0x01, 0x03},
		},
		{
			name: "partial data then read error is success",
			port: &fakePort{chunks: [][]byte{{0x01, 0x03, 0x02}}, readErr: errDisconnected},
			want: []byte{0x01, 0x03, 0x02},
		},
		{
			name: "partial data then deadline",
			port: &fakePort{chunks: [][]byte{{0xAA}}, readErr: timeoutError{}},
			want: []byte{0xAA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := Transact(tt.port, []byte{0x01}, 0)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Transact() error = %v, want %v", err, tt.wantErr)
				}
				if response != nil {
					t.Errorf("response should be nil on error, got % X", response)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transact() failed: %v", err)
			}
			if !bytes.Equal(response, tt.want) {
				t.Errorf("response = % X, want % X", response, tt.want)
			}
		})
	}
}

func TestTransact_ReadErrorWithoutData(t *testing.T) {
	_, err := Transact(&fakePort{readErr: errDisconnected}, []byte{0x01}, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNoResponse) {
		t.Error("a hard read failure is not a timeout")
	}
	if !errors.Is(err, errDisconnected) {
		t.Errorf("underlying error should be wrapped, got %v", err)
	}
}

func TestTransact_WriteFailure(t *testing.T) {
	port := &fakePort{writeErr: errDisconnected, chunks: [][]byte{{0x01}}}
	_, err := Transact(port, []byte{0x01}, 0)
	if !errors.Is(err, errDisconnected) {
		t.Fatalf("Transact() error = %v, want write failure", err)
	}
	if port.reads != 0 {
		t.Error("nothing should be read after a failed write")
	}
}

func TestTransact_EmptyRequest(t *testing.T) {
	port := &fakePort{echo: true}
	if _, err := Transact(port, nil, 0); !errors.Is(err, ErrEmptyRequest) {
		t.Errorf("Transact(nil) error = %v, want ErrEmptyRequest", err)
	}
	if len(port.written) != 0 {
		t.Error("empty request should not be written")
	}
}

func TestTransact_MaxResponse(t *testing.T) {
	chatter := bytes.Repeat([]byte{0x55}, 500)
	port := &fakePort{chunks: [][]byte{chatter}}

	response, err := Transact(port, []byte{0x01}, 10)
	if err != nil {
		t.Fatalf("Transact() failed: %v", err)
	}
	if len(response) != 10 {
		t.Errorf("len(response) = %d, want 10", len(response))
	}
}
