// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Thermoquad/relaystat/internal/config"
)

// setupLogger installs the default slog logger. Logs go to cfg.File when
// set, to stderr otherwise, and nowhere when quiet is set and no file is
// configured.
func setupLogger(cfg config.LogConfig, quiet bool) (io.Closer, error) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	var closer io.Closer
	switch {
	case cfg.File != "" && cfg.File != "-":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handler = slog.NewTextHandler(f, opts)
		closer = f
	case quiet:
		handler = slog.NewTextHandler(io.Discard, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
