// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/relaystat/pkg/relay"
	"github.com/Thermoquad/relaystat/pkg/session"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxLogEntries = 100
	logHeight     = 8
)

// Focus states
const (
	focusDeviceList = iota
	focusRelay
	focusCommand
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// deviceItem is one directory entry in the device list
type deviceItem struct {
	index int
	desc  session.PortDescriptor
}

// Implement list.Item interface
func (d deviceItem) Title() string { return fmt.Sprintf("%d  %s", d.index, d.desc.Name) }
func (d deviceItem) Description() string {
	switch {
	case d.desc.Bridge:
		return "WebSocket bridge"
	case d.desc.IsUSB && d.desc.Product != "":
		return d.desc.Product
	case d.desc.IsUSB:
		return fmt.Sprintf("USB %s:%s", d.desc.VID, d.desc.PID)
	}
	return "Serial port"
}
func (d deviceItem) FilterValue() string { return d.desc.Name }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	sess  *session.Session
	guard *session.Guard

	// Device tracking
	deviceList list.Model
	selected   int
	connected  bool
	probeText  string

	// Relay control
	relays     int
	relayNum   int // one-based, as shown
	relayOn    bool
	relayKnown bool

	// Console
	cmdInput textinput.Model
	withCRC  bool

	// Monitoring
	stats session.Statistics
	log   eventLog

	// UI state
	focusedField int
	styles       tuiStyles
	width        int
	height       int
	quitting     bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(s *session.Session, relays int) controlModel {
	ti := textinput.New()
	ti.Placeholder = "01 03 00 01 00 01"
	ti.CharLimit = 256
	ti.Width = 40

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	deviceList := list.New([]list.Item{}, delegate, 30, 10)
	deviceList.Title = "Devices"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)

	if relays <= 0 {
		relays = 1
	}

	m := controlModel{
		sess:         s,
		guard:        s.Guard(),
		deviceList:   deviceList,
		relays:       relays,
		relayNum:     1,
		cmdInput:     ti,
		stats:        s.Stats(),
		log:          newEventLog(maxLogEntries),
		focusedField: focusDeviceList,
		styles:       newTUIStyles(),
		width:        80,
		height:       24,
	}

	idx, _, _ := s.Selected()
	m.setDevices(s.Directory(), idx)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	if len(m.deviceList.Items()) == 0 {
		return controlTickCmd()
	}
	return tea.Batch(controlTickCmd(), selectCmd(m.sess, m.selected))
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		m.stats = m.sess.Stats()
		return m, controlTickCmd()

	case refreshMsg:
		return m.handleRefresh(msg)

	case probeMsg:
		return m.handleProbe(msg)

	case relayMsg:
		m.handleRelay(msg)

	case statusMsg:
		m.handleStatus(msg)

	case commandMsg:
		m.handleCommand(msg)
	}

	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.cycleFocus(1)
		return m, nil

	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil

	case "ctrl+r":
		m.withCRC = !m.withCRC
		return m, nil
	}

	if m.focusedField == focusCommand {
		return m.handleCommandKey(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "r":
		m.log.add("Refreshing devices", false)
		m.connected = false
		return m, refreshCmd(m.sess)
	}

	if m.focusedField == focusRelay {
		return m.handleRelayKey(msg)
	}

	// Device list
	before := m.deviceList.Index()
	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	if after := m.deviceList.Index(); after != before && len(m.deviceList.Items()) > 0 {
		m.selected = after
		m.connected = false
		m.relayKnown = false
		return m, tea.Batch(cmd, selectCmd(m.sess, after))
	}
	return m, cmd
}

func (m controlModel) handleRelayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "+", "=", "right", "l":
		return m, m.changeRelay(1)

	case "-", "left", "h":
		return m, m.changeRelay(-1)

	case " ", "space", "enter":
		if !m.connected {
			return m, nil
		}
		return m, m.setSwitch(!m.relayOn)

	case "s":
		if !m.connected {
			return m, nil
		}
		return m, readStatusCmd(m.sess, m.relayID())
	}
	return m, nil
}

func (m controlModel) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focusedField = focusDeviceList
		m.cmdInput.Blur()
		return m, nil

	case "enter":
		text := m.cmdInput.Value()
		if !m.connected || strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.cmdInput.SetValue("")
		return m, sendCommandCmd(m.sess, text, m.withCRC)
	}

	var cmd tea.Cmd
	m.cmdInput, cmd = m.cmdInput.Update(msg)
	return m, cmd
}

//////////////////////////////////////////////////////////////
// Session Results
//////////////////////////////////////////////////////////////

func (m controlModel) handleRefresh(msg refreshMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setDevices(nil, 0)
		m.log.add(msg.err.Error(), true)
		return m, nil
	}

	m.setDevices(msg.dir, 0)
	if msg.dir.Len() == 0 {
		return m, nil
	}
	m.log.add(fmt.Sprintf("Found %d device(s)", msg.dir.Len()), false)
	return m, selectCmd(m.sess, 0)
}

func (m controlModel) handleProbe(msg probeMsg) (tea.Model, tea.Cmd) {
	if msg.index != m.selected {
		// Selection moved on while probing
		return m, nil
	}

	m.connected = msg.ok
	m.probeText = msg.msg
	m.log.add(msg.msg, !msg.ok)
	if !msg.ok {
		return m, nil
	}
	return m, readStatusCmd(m.sess, m.relayID())
}

func (m *controlModel) handleRelay(msg relayMsg) {
	m.log.add(fmt.Sprintf("Relay %d: %s", msg.relay.Number(), msg.action), false)
	m.logExchange(msg.ex, msg.err)
	m.stats = m.sess.Stats()
}

func (m *controlModel) handleStatus(msg statusMsg) {
	m.logExchange(msg.ex.Exchange, msg.err)
	m.stats = m.sess.Stats()
	if msg.err != nil {
		return
	}

	line := statusLine(msg.relay, msg.ex.Status)
	if !msg.ex.Status.Known() {
		m.log.add(line, true)
		return
	}
	m.log.add(line, false)

	if msg.relay != m.relayID() {
		return
	}

	// Reflect the reply without sending a new command
	m.guard.Do(func() {
		m.setSwitch(msg.ex.Status.State == relay.StateOpen)
	})
}

func (m *controlModel) handleCommand(msg commandMsg) {
	m.stats = m.sess.Stats()
	if !reachedWire(msg.ex.Exchange, msg.err) {
		m.log.add(msg.err.Error(), true)
		return
	}

	m.log.add(fmt.Sprintf("Command sent: %s (%s)",
		strings.TrimSpace(relay.FormatHex(msg.ex.Sent)), msg.ex.Payload.Mode), false)
	if msg.err != nil {
		m.log.add(fmt.Sprintf("Received: %s (%v)", msgReadError, msg.err), true)
		return
	}
	m.log.add("Received: "+msg.ex.Decoded, false)
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

// setSwitch updates the on/off toggle. Unless the guard is suppressing
// notifications, a change sends the matching control frame.
func (m *controlModel) setSwitch(on bool) tea.Cmd {
	if m.relayKnown && m.relayOn == on {
		return nil
	}
	m.relayOn = on
	m.relayKnown = true
	if m.guard.Suppressed() {
		return nil
	}

	action := relay.ActionClose
	if on {
		action = relay.ActionOpen
	}
	return setRelayCmd(m.sess, m.relayID(), action)
}

// changeRelay moves the relay selection and reads back its state
func (m *controlModel) changeRelay(delta int) tea.Cmd {
	next := m.relayNum + delta
	if next < 1 || next > m.relays {
		return nil
	}
	m.relayNum = next
	m.relayKnown = false
	if !m.connected {
		return nil
	}
	return readStatusCmd(m.sess, m.relayID())
}

func (m *controlModel) relayID() relay.RelayID {
	return relay.RelayID(m.relayNum - 1)
}

func (m *controlModel) logExchange(ex session.Exchange, err error) {
	if !reachedWire(ex, err) {
		if err != nil {
			m.log.add(err.Error(), true)
		}
		return
	}
	m.log.add(sentLine(ex.Sent), false)
	m.log.add(receivedLine(ex.Received, err), err != nil)
	for _, w := range warningLines(ex.Warnings) {
		m.log.add(w, true)
	}
}

func (m *controlModel) setDevices(dir session.Directory, selected int) {
	items := make([]list.Item, dir.Len())
	for i, d := range dir {
		items[i] = deviceItem{index: i, desc: d}
	}
	m.deviceList.SetItems(items)
	m.selected = selected
	m.deviceList.Select(selected)
	m.relayKnown = false
	m.connected = false

	if dir.Len() == 0 {
		m.probeText = session.MsgNoDevices
		m.log.add(session.MsgNoDevices, true)
	}
}

func (m *controlModel) cycleFocus(delta int) {
	const fields = focusCommand + 1
	m.focusedField = (m.focusedField + delta + fields) % fields
	if m.focusedField == focusCommand {
		m.cmdInput.Focus()
	} else {
		m.cmdInput.Blur()
	}
}

func (m *controlModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.deviceList.SetSize(28, listHeight)
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	st := m.styles
	var s strings.Builder

	// Header
	helpText := "q=quit Tab=switch r=refresh"
	if m.focusedField == focusCommand {
		helpText = "ctrl+c=quit Tab=switch Enter=send ctrl+r=CRC"
	}
	s.WriteString(st.title.Render("RELAYSTAT CONTROL"))
	s.WriteString(" ")
	s.WriteString(st.header.Render("| " + helpText))
	s.WriteString("\n\n")

	// Layout: left panel (devices) | right panel (control)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 30 {
		rightWidth = 30
	}

	listStyle := st.box.Width(leftWidth)
	if m.focusedField == focusDeviceList {
		listStyle = st.focusedBox.Width(leftWidth)
	}
	devicePanel := listStyle.Render(m.deviceList.View())

	controlStyle := st.box.Width(rightWidth)
	if m.focusedField != focusDeviceList {
		controlStyle = st.focusedBox.Width(rightWidth)
	}
	controlPanel := controlStyle.Render(m.renderControlPanel())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, devicePanel, " ", controlPanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n\n")

	s.WriteString(renderEventLog(m.log, logHeight, m.width-4, st))

	return s.String()
}

func (m controlModel) renderControlPanel() string {
	st := m.styles
	var s strings.Builder

	if len(m.deviceList.Items()) == 0 {
		s.WriteString(st.warning.Render(session.MsgNoDevices))
		s.WriteString("\n")
		s.WriteString(st.header.Render("Press r to refresh"))
		return s.String()
	}

	// Connection state
	status := st.err.Render(m.probeText)
	if m.connected {
		status = st.value.Render(m.probeText)
	} else if m.probeText == "" {
		status = st.warning.Render("Probing...")
	}
	s.WriteString(fmt.Sprintf("%s %s\n\n", st.label.Render("Status:"), status))

	// Relay selection and switch
	relayText := fmt.Sprintf("[ %d ] / %d", m.relayNum, m.relays)
	if m.focusedField == focusRelay {
		relayText = st.value.Render(relayText)
	}
	s.WriteString(fmt.Sprintf("%s %s\n", st.label.Render("Relay:"), relayText))

	btnText := "[ ?? ]"
	if m.relayKnown {
		btnText = "[ OFF ]"
		if m.relayOn {
			btnText = "[ ON ]"
		}
	}
	btnStyle := st.button
	if m.connected && m.relayKnown && m.relayOn {
		btnStyle = st.buttonActive
	}
	s.WriteString(fmt.Sprintf("%s %s\n\n", st.label.Render("Switch:"), btnStyle.Render(btnText)))

	// Console
	crc := "off"
	if m.withCRC {
		crc = "on"
	}
	s.WriteString(fmt.Sprintf("%s (CRC %s)\n", st.label.Render("Command:"), crc))
	if m.focusedField == focusCommand {
		s.WriteString(m.cmdInput.View())
	} else {
		val := m.cmdInput.Value()
		if val == "" {
			val = m.cmdInput.Placeholder
		}
		s.WriteString(st.header.Render(fmt.Sprintf("[%s]", val)))
	}

	return s.String()
}

func (m controlModel) renderStatisticsBar() string {
	st := m.styles
	failures := m.stats.NoResponse + m.stats.Failures

	errorsText := st.value.Render("0")
	if failures > 0 {
		errorsText = st.err.Render(fmt.Sprintf("%d", failures))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		st.label.Render("Total:"), st.value.Render(fmt.Sprintf("%d", m.stats.Transactions)),
		st.label.Render("Answered:"), st.value.Render(fmt.Sprintf("%.1f%%", m.stats.SuccessPercent())),
		st.label.Render("Errors:"), errorsText,
		st.label.Render("Unrecognized:"), st.value.Render(fmt.Sprintf("%d", m.stats.Unrecognized)),
		st.label.Render("Session:"), st.value.Render(formatUptime(time.Since(m.stats.StartTime))),
	)

	return st.box.Width(m.width - 4).Render(content)
}
