// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the process logger. Components receive a
// *slog.Logger and scope it with With("component", ...).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ParseLevel maps a config level name to a slog.Level. The empty
// string is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", name)
	}
}

// New returns a logger writing to stderr. When stderr is a terminal
// the output is slog text; otherwise it is JSON for log collectors.
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, level, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWriter is New with the destination and format chosen by the
// caller.
func NewWriter(w io.Writer, level slog.Level, text bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
