// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"io"

	"github.com/Thermoquad/relaystat/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global flags
	configFile string
	deviceIdx  int
	logLevel   string

	v   = viper.New()
	cfg *config.Config

	// closes the log file, if any
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "relaystat",
	Short: "RS-485 Relay Module Controller",
	Long: `Relaystat - A CLI tool for switching and querying RS-485 relay modules.

Relay modules are addressed by the serial port they are attached to. Ports are
listed with "relaystat ports" and selected by index with --device.

Relay numbers on the command line start at 1.

Devices:
  Serial:    any port reported by "relaystat ports" (9600 baud, 8N1)
  WebSocket: bridge URLs listed under "bridges" in relaystat.yaml

For WebSocket bridges with a username configured, the password is read from
the RELAYSTAT_PASSWORD environment variable, or prompted interactively if not
set. A --password flag is intentionally not provided to avoid leaking
credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default relaystat.yaml in $HOME/.relaystat, /etc/relaystat or .)")
	rootCmd.PersistentFlags().IntVarP(&deviceIdx, "device", "d", 0, "Device index from the port listing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	v.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadConfig reads configuration and sets up logging before any command runs
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(v, configFile)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	cfg = loaded

	// The control panel owns the terminal; only log there when a file is set
	quiet := cmd.Name() == controlCmd.Name() && cfg.Log.File == ""
	closer, err := setupLogger(cfg.Log, quiet)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	logCloser = closer
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
