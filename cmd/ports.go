// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/relaystat/pkg/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var portsOutput string

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and configured bridges",
	Long: `List the devices relay commands can be sent to.

Serial ports are listed in name order with USB details where the platform
reports them, followed by the WebSocket bridges from relaystat.yaml. The
index shown is the value to pass to --device.

Output formats:
  text (default): one device per line, the selected device marked with *
  yaml:           a list of device records for scripts

Exit codes:
  0 - At least one device found
  1 - No devices found
  2 - Port enumeration failed`,
	Args: cobra.NoArgs,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().StringVarP(&portsOutput, "output", "o", "text", "Output format (text, yaml)")
}

// portEntry is one device in the yaml listing
type portEntry struct {
	Index                  int `yaml:"index"`
	session.PortDescriptor `yaml:",inline"`
}

func runPorts(cmd *cobra.Command, args []string) error {
	if portsOutput != "text" && portsOutput != "yaml" {
		return fmt.Errorf("unknown output format %q (use text or yaml)", portsOutput)
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	dir := s.Directory()
	idx, _, _ := s.Selected()

	if portsOutput == "yaml" {
		if err := writePortsYAML(os.Stdout, dir); err != nil {
			return err
		}
	} else {
		for _, line := range directoryLines(dir, idx) {
			fmt.Println(line)
		}
	}

	if dir.Len() == 0 {
		return withExitCode(exitDevice, errors.New(session.MsgNoDevices))
	}
	return nil
}

func writePortsYAML(w io.Writer, dir session.Directory) error {
	entries := make([]portEntry, dir.Len())
	for i, d := range dir {
		entries[i] = portEntry{Index: i, PortDescriptor: d}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode port list: %w", err)
	}
	return enc.Close()
}
