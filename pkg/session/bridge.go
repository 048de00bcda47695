// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// BridgeOpener connects to an RS-485 bridge that relays raw bus bytes over
// WebSocket binary messages, authenticating with HTTP Basic auth when a
// username is set.
type BridgeOpener struct {
	Username         string
	Password         string
	SkipSSLVerify    bool
	Timeout          time.Duration // per read/write
	HandshakeTimeout time.Duration
}

// Open dials the bridge at rawURL
func (o BridgeOpener) Open(rawURL string) (Port, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	handshake := o.HandshakeTimeout
	if handshake <= 0 {
		handshake = 5 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshake,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: o.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if o.Username != "" && o.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(o.Username + ":" + o.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshake)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &bridgePort{conn: conn, timeout: timeout}, nil
}

// bridgePort adapts a WebSocket connection to the Port interface
type bridgePort struct {
	conn      *websocket.Conn
	timeout   time.Duration
	buf       []byte
	bufOffset int
}

func (b *bridgePort) Read(p []byte) (int, error) {
	if b.bufOffset < len(b.buf) {
		n := copy(p, b.buf[b.bufOffset:])
		b.bufOffset += n
		return n, nil
	}

	if err := b.conn.SetReadDeadline(time.Now().Add(b.timeout)); err != nil {
		return 0, err
	}

	for {
		messageType, data, err := b.conn.ReadMessage()
		if err != nil {
			return 0, err
		}

		// Bus bytes only travel in binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}

		b.buf = data
		n := copy(p, b.buf)
		b.bufOffset = n
		return n, nil
	}
}

func (b *bridgePort) Write(p []byte) (int, error) {
	if err := b.conn.SetWriteDeadline(time.Now().Add(b.timeout)); err != nil {
		return 0, err
	}
	if err := b.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *bridgePort) SetReadTimeout(t time.Duration) error {
	b.timeout = t
	return nil
}

func (b *bridgePort) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(b.timeout))
	return b.conn.Close()
}
