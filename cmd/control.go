// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/relaystat/pkg/relay"
	"github.com/Thermoquad/relaystat/pkg/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for switching relays",
	Long: `Control relay modules via an interactive terminal UI.

Features:
  - Device list with refresh (r)
  - Relay selection (+/-), state read back on every change
  - On/off toggle (space)
  - Raw console commands with optional CRC (ctrl+r toggles)
  - Statistics tracking
  - Event logging

Tab switches between the device list, relay control and the command input.
Controls are only enabled while the selected device can be opened.

Logs are discarded while the TUI runs unless log.file is configured.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	m := initialControlModel(s, cfg.Relays)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Session Commands
//////////////////////////////////////////////////////////////

// Each command runs one session operation off the UI goroutine and reports
// the outcome as a message. The session serializes them.

type refreshMsg struct {
	dir session.Directory
	err error
}

type probeMsg struct {
	index int
	ok    bool
	msg   string
}

type relayMsg struct {
	relay  relay.RelayID
	action relay.Action
	ex     session.Exchange
	err    error
}

type statusMsg struct {
	relay relay.RelayID
	ex    session.StatusExchange
	err   error
}

type commandMsg struct {
	ex  session.CommandExchange
	err error
}

func refreshCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		dir, err := s.Refresh()
		return refreshMsg{dir: dir, err: err}
	}
}

func selectCmd(s *session.Session, index int) tea.Cmd {
	return func() tea.Msg {
		ok, msg := s.SelectAndProbe(index)
		return probeMsg{index: index, ok: ok, msg: msg}
	}
}

func setRelayCmd(s *session.Session, r relay.RelayID, action relay.Action) tea.Cmd {
	return func() tea.Msg {
		ex, err := s.SetRelay(r, action)
		return relayMsg{relay: r, action: action, ex: ex, err: err}
	}
}

func readStatusCmd(s *session.Session, r relay.RelayID) tea.Cmd {
	return func() tea.Msg {
		ex, err := s.ReadStatus(r)
		return statusMsg{relay: r, ex: ex, err: err}
	}
}

func sendCommandCmd(s *session.Session, text string, withCRC bool) tea.Cmd {
	return func() tea.Msg {
		ex, err := s.SendCommand(text, withCRC)
		return commandMsg{ex: ex, err: err}
	}
}
