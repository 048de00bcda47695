// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Thermoquad/relaystat/pkg/relay"
	"github.com/Thermoquad/relaystat/pkg/session"
	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m controlModel, msg tea.Msg) (controlModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	cm, ok := next.(controlModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return cm, cmd
}

func connectedModel(t *testing.T, opener *scriptedOpener) controlModel {
	t.Helper()
	m := initialControlModel(testSession(t, opener, "/dev/ttyUSB0"), 8)
	m, _ = update(t, m, probeMsg{index: 0, ok: true, msg: session.MsgConnected})
	m.focusedField = focusRelay
	return m
}

func lastLog(m controlModel) string {
	if len(m.log.entries) == 0 {
		return ""
	}
	return m.log.entries[len(m.log.entries)-1].message
}

func TestControl_StatusReplyDoesNotSendCommand(t *testing.T) {
	opener := &scriptedOpener{replies: [][]byte{relay.ReplyRelayOpen[:]}}
	m := connectedModel(t, opener)

	msg := readStatusCmd(m.sess, m.relayID())()
	before := opener.count()

	m, cmd := update(t, m, msg)
	if cmd != nil {
		t.Error("writing back a status reply must not issue a command")
	}
	if opener.count() != before {
		t.Errorf("transactions went from %d to %d", before, opener.count())
	}
	if !m.relayKnown || !m.relayOn {
		t.Errorf("switch = known %v on %v, want known and on", m.relayKnown, m.relayOn)
	}
	if m.guard.Suppressed() {
		t.Error("guard left suppressed")
	}
	if lastLog(m) != "Relay 1: OPEN" {
		t.Errorf("last log = %q", lastLog(m))
	}
}

func TestControl_ToggleSendsControlFrame(t *testing.T) {
	opener := &scriptedOpener{replies: [][]byte{relay.ReplyRelayClosed[:]}}
	m := connectedModel(t, opener)
	m.relayNum = 3

	m, cmd := update(t, m, runeKey(' '))
	if cmd == nil {
		t.Fatal("toggle should issue a command")
	}
	if !m.relayOn {
		t.Error("toggle from unknown should switch on")
	}

	msg, ok := cmd().(relayMsg)
	if !ok {
		t.Fatalf("command produced %T, want relayMsg", msg)
	}
	if msg.action != relay.ActionOpen || msg.relay != 2 {
		t.Errorf("relayMsg = relay %d action %v, want relay 2 OPEN", msg.relay, msg.action)
	}
	if !bytes.Equal(msg.ex.Sent, relay.BuildControlFrame(2, relay.ActionOpen)) {
		t.Errorf("sent % X", msg.ex.Sent)
	}

	m, _ = update(t, m, msg)
	found := false
	for _, e := range m.log.entries {
		if strings.HasPrefix(e.message, "Sent: 0x01 0x06 0x00 0x03 0x01") {
			found = true
		}
	}
	if !found {
		t.Errorf("log should contain the Sent line: %+v", m.log.entries)
	}
	if m.stats.Transactions != 1 {
		t.Errorf("stats not refreshed: %d transactions", m.stats.Transactions)
	}
}

func TestControl_ToggleRequiresConnection(t *testing.T) {
	opener := &scriptedOpener{}
	m := initialControlModel(testSession(t, opener, "/dev/ttyUSB0"), 8)
	m.focusedField = focusRelay

	if _, cmd := update(t, m, runeKey(' ')); cmd != nil {
		t.Error("toggle before the probe succeeds should do nothing")
	}
}

func TestControl_RelayNumberBounds(t *testing.T) {
	opener := &scriptedOpener{replies: [][]byte{relay.ReplyRelayClosed[:]}}
	m := connectedModel(t, opener)
	m.relays = 2

	if _, cmd := update(t, m, runeKey('-')); cmd != nil {
		t.Error("relay 1 cannot go lower")
	}

	m, cmd := update(t, m, runeKey('+'))
	if m.relayNum != 2 || cmd == nil {
		t.Fatalf("relayNum = %d, cmd = %v; want 2 and a status read", m.relayNum, cmd)
	}
	msg, ok := cmd().(statusMsg)
	if !ok || msg.relay != 1 {
		t.Errorf("status read for %+v, want relay id 1", msg)
	}

	if _, cmd := update(t, m, runeKey('+')); cmd != nil {
		t.Error("relay count is the upper bound")
	}
}

func TestControl_StaleProbeIgnored(t *testing.T) {
	m := initialControlModel(testSession(t, &scriptedOpener{}, "/dev/ttyUSB0", "/dev/ttyUSB1"), 8)
	m.selected = 1

	m, cmd := update(t, m, probeMsg{index: 0, ok: true, msg: session.MsgConnected})
	if m.connected || cmd != nil {
		t.Error("a probe for a previous selection must not enable controls")
	}
}

func TestControl_FailedProbeDisablesControls(t *testing.T) {
	m := connectedModel(t, &scriptedOpener{})

	m, _ = update(t, m, probeMsg{index: 0, ok: false, msg: "port unavailable: busy"})
	if m.connected {
		t.Error("failed probe should disable controls")
	}
	if e := m.log.entries[len(m.log.entries)-1]; !e.isError {
		t.Error("failed probe should be logged as an error")
	}
}

func TestControl_RefreshEmpty(t *testing.T) {
	m := connectedModel(t, &scriptedOpener{})

	m, cmd := update(t, m, refreshMsg{dir: session.Directory{}})
	if cmd != nil {
		t.Error("empty refresh should not probe")
	}
	if lastLog(m) != session.MsgNoDevices {
		t.Errorf("last log = %q, want %q", lastLog(m), session.MsgNoDevices)
	}
	if m.connected {
		t.Error("controls should be disabled")
	}
	if !strings.Contains(m.View(), session.MsgNoDevices) {
		t.Error("view should show the empty directory message")
	}
}

func TestControl_RefreshProbesFirstDevice(t *testing.T) {
	m := connectedModel(t, &scriptedOpener{})
	m.selected = 1

	m, cmd := update(t, m, refreshMsg{dir: session.Directory{{Name: "/dev/ttyUSB0"}}})
	if m.selected != 0 || cmd == nil {
		t.Fatalf("selected = %d, cmd = %v; want 0 and a probe", m.selected, cmd)
	}
	if msg, ok := cmd().(probeMsg); !ok || !msg.ok || msg.msg != session.MsgConnected {
		t.Errorf("probe result = %+v", msg)
	}
}

func TestControl_CommandEntry(t *testing.T) {
	opener := &scriptedOpener{replies: [][]byte{relay.ReplyRelayOpen[:]}}
	m := connectedModel(t, opener)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedField != focusCommand {
		t.Fatalf("focus = %d, want command", m.focusedField)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.withCRC {
		t.Fatal("ctrl+r should enable CRC")
	}

	m.cmdInput.SetValue("01 03 00 01 00 01")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should send the command")
	}
	if m.cmdInput.Value() != "" {
		t.Error("input should be cleared after sending")
	}

	msg := cmd().(commandMsg)
	if !bytes.Equal(msg.ex.Sent, relay.BuildStatusFrame(0)) {
		t.Errorf("sent % X, want status frame with CRC", msg.ex.Sent)
	}

	m, _ = update(t, m, msg)
	if lastLog(m) != "Received: 0x01 0x03 0x02 0x00 0x01 0x79 0x84 " {
		t.Errorf("last log = %q", lastLog(m))
	}

	// Typing q in the command input must not quit
	m, cmd = update(t, m, runeKey('q'))
	if m.quitting || m.cmdInput.Value() != "q" {
		t.Errorf("q should be typed, quitting=%v value=%q", m.quitting, m.cmdInput.Value())
	}
	_ = cmd
}

func TestControl_InvalidCommandLogsError(t *testing.T) {
	opener := &scriptedOpener{}
	m := connectedModel(t, opener)

	msg := sendCommandCmd(m.sess, "01 ZZ", false)().(commandMsg)
	m, _ = update(t, m, msg)
	if !strings.Contains(lastLog(m), "ZZ") {
		t.Errorf("last log = %q, want the bad token", lastLog(m))
	}
	if opener.count() != 0 {
		t.Error("invalid input must not open the port")
	}
}

func TestDeviceItem(t *testing.T) {
	tests := []struct {
		desc session.PortDescriptor
		want string
	}{
		{session.PortDescriptor{Name: "/dev/ttyS0"}, "Serial port"},
		{session.PortDescriptor{Name: "ws://x", Bridge: true}, "WebSocket bridge"},
		{session.PortDescriptor{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"}, "USB 1a86:7523"},
		{session.PortDescriptor{Name: "/dev/ttyUSB0", IsUSB: true, Product: "CH340"}, "CH340"},
	}

	for _, tt := range tests {
		item := deviceItem{index: 2, desc: tt.desc}
		if got := item.Description(); got != tt.want {
			t.Errorf("Description() = %q, want %q", got, tt.want)
		}
		if !strings.HasPrefix(item.Title(), "2  ") {
			t.Errorf("Title() = %q", item.Title())
		}
	}
}

func TestControl_SelectCmd(t *testing.T) {
	s := testSession(t, &scriptedOpener{}, "/dev/ttyUSB0", "/dev/ttyUSB1")

	msg, ok := selectCmd(s, 1)().(probeMsg)
	if !ok || msg.index != 1 || !msg.ok {
		t.Fatalf("selectCmd(1) = %+v, want a successful result for index 1", msg)
	}
	if idx, _, _ := s.Selected(); idx != 1 {
		t.Errorf("selected = %d, want 1", idx)
	}

	msg = selectCmd(s, 7)().(probeMsg)
	if msg.ok || msg.msg == "" {
		t.Errorf("selectCmd(7) = %+v, want a failure with a message", msg)
	}
	if idx, _, _ := s.Selected(); idx != 1 {
		t.Errorf("selection moved to %d after a failed select", idx)
	}
}
