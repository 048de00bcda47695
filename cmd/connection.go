// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/Thermoquad/relaystat/internal/config"
	"github.com/Thermoquad/relaystat/pkg/session"
	"golang.org/x/term"
)

// Exit codes
const (
	exitOK         = 0
	exitDevice     = 1 // no response, unrecognized data, empty directory
	exitConnection = 2 // port unavailable, enumeration or config failure
)

// exitError carries a process exit code alongside the error
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by Execute to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, session.ErrPortUnavailable) || errors.Is(err, session.ErrEnumeration) {
		return exitConnection
	}
	return exitDevice
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv(config.PasswordEnv); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Bridge password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// newOpener builds the transport for serial ports and configured bridges.
// The bridge password is only asked for when a bridge and a username are
// both configured.
func newOpener(cfg *config.Config) (session.Opener, error) {
	serialOpener := session.NewSerialOpener()
	if cfg.Serial.BaudRate > 0 {
		serialOpener.BaudRate = cfg.Serial.BaudRate
	}
	if cfg.Serial.Timeout > 0 {
		serialOpener.Timeout = cfg.Serial.Timeout
	}
	mux := session.MuxOpener{Serial: serialOpener}

	if len(cfg.Bridges) == 0 {
		return mux, nil
	}

	password := ""
	if cfg.Bridge.Username != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return nil, err
		}
	}

	mux.Bridge = session.BridgeOpener{
		Username:         cfg.Bridge.Username,
		Password:         password,
		SkipSSLVerify:    cfg.Bridge.NoSSLVerify,
		Timeout:          serialOpener.Timeout,
		HandshakeTimeout: cfg.Bridge.HandshakeTimeout,
	}
	return mux, nil
}

// newSession enumerates devices and returns a session with the configured
// device selected. An empty directory is not an error here; commands that
// need a device report it.
func newSession(cfg *config.Config) (*session.Session, error) {
	opener, err := newOpener(cfg)
	if err != nil {
		return nil, withExitCode(exitConnection, err)
	}

	s := session.New(
		session.WithBridges(session.Enumerate, cfg.Bridges),
		opener,
		session.WithLogger(slog.Default()),
		session.WithMaxResponse(cfg.Serial.MaxResponse),
	)

	dir, err := s.Refresh()
	if err != nil {
		return nil, err
	}
	slog.Debug("devices enumerated", "count", dir.Len())

	if dir.Len() > 0 && cfg.Device != 0 {
		if err := s.Select(cfg.Device); err != nil {
			return nil, withExitCode(exitDevice, err)
		}
	}
	return s, nil
}

// selectedDevice opens a session and returns it along with the selected
// descriptor, failing with the empty directory message when there is none
func selectedDevice(cfg *config.Config) (*session.Session, session.PortDescriptor, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, session.PortDescriptor{}, err
	}
	if s.Directory().Len() == 0 {
		return nil, session.PortDescriptor{}, withExitCode(exitDevice, errors.New(session.MsgNoDevices))
	}
	_, desc, err := s.Selected()
	if err != nil {
		return nil, session.PortDescriptor{}, withExitCode(exitDevice, err)
	}
	return s, desc, nil
}
