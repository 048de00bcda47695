// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestEventLog_Trim(t *testing.T) {
	l := newEventLog(3)
	for i := 0; i < 5; i++ {
		l.add(fmt.Sprintf("event %d", i), false)
	}

	if len(l.entries) != 3 {
		t.Fatalf("kept %d entries, want 3", len(l.entries))
	}
	if l.entries[0].message != "event 2" {
		t.Errorf("oldest kept = %q, want event 2", l.entries[0].message)
	}

	tail := l.tail(2)
	if len(tail) != 2 || tail[1].message != "event 4" {
		t.Errorf("tail(2) = %+v", tail)
	}
	if len(l.tail(10)) != 3 {
		t.Error("tail larger than the log should return everything")
	}
}

func TestRenderEventLog_Timestamps(t *testing.T) {
	l := newEventLog(10)
	l.now = func() time.Time { return time.Date(2025, 1, 1, 13, 4, 5, 0, time.Local) }
	l.add("Connected!", false)

	out := renderEventLog(l, 8, 60, newTUIStyles())
	if !strings.Contains(out, "13:04:05") || !strings.Contains(out, "Connected!") {
		t.Errorf("rendered log missing timestamp or message:\n%s", out)
	}

	empty := renderEventLog(newEventLog(10), 8, 60, newTUIStyles())
	if !strings.Contains(empty, "no events yet") {
		t.Errorf("empty log should say so:\n%s", empty)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{59 * time.Second, "59 seconds"},
		{time.Minute, "1 minute"},
		{time.Minute + 5*time.Second, "1 minute and 5 seconds"},
		{2*time.Hour + 3*time.Minute + time.Second, "2 hours, 3 minutes, and 1 second"},
		{26 * time.Hour, "1 day and 2 hours"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
