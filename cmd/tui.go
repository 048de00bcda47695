// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for information
}

// eventLog keeps the most recent entries shown in the control panel
type eventLog struct {
	entries    []logEntry
	maxEntries int
	now        func() time.Time
}

func newEventLog(maxEntries int) eventLog {
	return eventLog{
		entries:    make([]logEntry, 0),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (l *eventLog) add(message string, isError bool) {
	l.entries = append(l.entries, logEntry{
		timestamp: l.now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}
}

// tail returns up to n of the newest entries, oldest first
func (l eventLog) tail(n int) []logEntry {
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return l.entries[len(l.entries)-n:]
}

// tuiStyles holds the lipgloss styles shared by the control panel views
type tuiStyles struct {
	title        lipgloss.Style
	header       lipgloss.Style
	label        lipgloss.Style
	value        lipgloss.Style
	err          lipgloss.Style
	warning      lipgloss.Style
	box          lipgloss.Style
	focusedBox   lipgloss.Style
	button       lipgloss.Style
	buttonActive lipgloss.Style
}

func newTUIStyles() tuiStyles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	button := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("240")).
		Padding(0, 2)

	return tuiStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		err: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		box:          box,
		focusedBox:   box.BorderForeground(lipgloss.Color("12")),
		button:       button,
		buttonActive: button.Background(lipgloss.Color("10")),
	}
}

// renderEventLog renders the newest height entries with HH:MM:SS stamps
func renderEventLog(l eventLog, height, width int, st tuiStyles) string {
	var s strings.Builder
	s.WriteString(st.label.Render("EVENTS"))
	s.WriteString("\n")

	entries := l.tail(height)
	if len(entries) == 0 {
		s.WriteString(st.header.Render("  (no events yet)"))
	}
	for _, entry := range entries {
		icon := "i"
		style := st.warning
		if entry.isError {
			icon = "x"
			style = st.err
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			st.header.Render(clock(entry.timestamp)),
			style.Render(icon),
			entry.message))
	}

	return st.box.Width(width).Render(s.String())
}

// formatUptime formats a duration as a human-friendly string
func formatUptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0 seconds"
	}

	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	for _, unit := range []struct {
		n    int64
		name string
	}{
		{days, "day"},
		{hours, "hour"},
		{minutes, "minute"},
		{seconds, "second"},
	} {
		switch {
		case unit.n == 1:
			parts = append(parts, "1 "+unit.name)
		case unit.n > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", unit.n, unit.name))
		}
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}
