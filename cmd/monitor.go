// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/relaystat/pkg/relay"
	"github.com/Thermoquad/relaystat/pkg/session"
	"github.com/spf13/cobra"
)

var (
	monitorShowAll       bool
	monitorInterval      time.Duration
	monitorStatsInterval int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll relay states and report changes and bus errors",
	Long: `Repeatedly read the status of every relay on the selected device.

Each poll round reads relays 1 to the configured relay count in order. State
changes, unanswered reads, unrecognized replies and malformed replies are
printed as they happen; periodic statistics summaries are printed at the
configured interval.

By default, unchanged states are not printed. Use --show-all to print every
reply.

Press Ctrl+C to stop; a final statistics summary is printed on exit.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "Print every reply (not just changes and errors)")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", time.Second, "Delay between poll rounds")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
}

// validateMonitorFlags rejects intervals the poll loop cannot run with
func validateMonitorFlags(interval time.Duration, statsInterval int) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	if statsInterval < 1 {
		return fmt.Errorf("--stats-interval must be at least 1 second, got %d", statsInterval)
	}
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if err := validateMonitorFlags(monitorInterval, monitorStatsInterval); err != nil {
		return err
	}

	s, desc, err := selectedDevice(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Relaystat - Monitor\n")
	fmt.Printf("Device: %s\n", desc)
	fmt.Printf("Relays: 1-%d every %s\n", cfg.Relays, monitorInterval)
	fmt.Printf("Statistics interval: %d seconds\n", monitorStatsInterval)
	if monitorShowAll {
		fmt.Printf("Mode: All replies\n")
	} else {
		fmt.Printf("Mode: Changes and errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statsTicker := time.NewTicker(time.Duration(monitorStatsInterval) * time.Second)
	defer statsTicker.Stop()

	m := newRelayMonitor(s, cfg.Relays, monitorShowAll)
	for {
		for _, line := range m.poll(ctx) {
			fmt.Println(line)
		}

		select {
		case <-ctx.Done():
			fmt.Println()
			stats := s.Stats()
			fmt.Print(stats.String())
			return nil
		case <-statsTicker.C:
			fmt.Println()
			stats := s.Stats()
			fmt.Print(stats.String())
			fmt.Println()
		case <-time.After(monitorInterval):
		}
	}
}

// relayMonitor remembers the last known state of each relay so that only
// changes are reported
type relayMonitor struct {
	s       *session.Session
	relays  int
	showAll bool
	last    map[relay.RelayID]relay.RelayState
	now     func() time.Time
}

func newRelayMonitor(s *session.Session, relays int, showAll bool) *relayMonitor {
	return &relayMonitor{
		s:       s,
		relays:  relays,
		showAll: showAll,
		last:    make(map[relay.RelayID]relay.RelayState),
		now:     time.Now,
	}
}

// poll reads every relay once and returns the lines worth printing
func (m *relayMonitor) poll(ctx context.Context) []string {
	var lines []string
	for i := 0; i < m.relays; i++ {
		if ctx.Err() != nil {
			break
		}
		r := relay.RelayID(i)
		ex, err := m.s.ReadStatus(r)
		ts := clock(m.now())

		if err != nil {
			if errors.Is(err, session.ErrNoResponse) {
				lines = append(lines, fmt.Sprintf("[%s] \033[1;31mNO RESPONSE:\033[0m relay %d", ts, r.Number()))
			} else {
				lines = append(lines, fmt.Sprintf("[%s] \033[1;31mERROR:\033[0m relay %d: %v", ts, r.Number(), err))
			}
			delete(m.last, r)
			continue
		}

		for _, w := range warningLines(ex.Warnings) {
			lines = append(lines, fmt.Sprintf("[%s] \033[1;33mWARNING:\033[0m relay %d: %s", ts, r.Number(), w))
		}

		prev, seen := m.last[r]
		m.last[r] = ex.Status.State
		if m.showAll || !seen || prev != ex.Status.State || !ex.Status.Known() {
			lines = append(lines, fmt.Sprintf("[%s] %s", ts, statusLine(r, ex.Status)))
		}
	}
	return lines
}
