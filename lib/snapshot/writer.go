// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tcgref/tcgref/lib/refdata"
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	Path        string
	Compression Compression
	Logger      *slog.Logger
	// OnSaved, if set, is called after each successful save.
	OnSaved func(revision uint64)
}

// Writer saves published contexts in the background. Offer never
// blocks; when several contexts arrive while a save is running, only
// the newest is written next.
type Writer struct {
	path        string
	compression Compression
	logger      *slog.Logger
	onSaved     func(uint64)

	mu     sync.Mutex
	latest *refdata.Context
	wake   chan struct{}
}

// NewWriter creates a Writer. Panics if Path is empty.
func NewWriter(config WriterConfig) *Writer {
	if config.Path == "" {
		panic("snapshot.NewWriter: Path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Writer{
		path:        config.Path,
		compression: config.Compression,
		logger:      config.Logger.With("component", "snapshot", "path", config.Path),
		onSaved:     config.OnSaved,
		wake:        make(chan struct{}, 1),
	}
}

// Offer schedules c to be saved, replacing any context not yet saved.
func (w *Writer) Offer(c *refdata.Context) {
	w.mu.Lock()
	w.latest = c
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run saves offered contexts until ctx ends. A context offered but not
// yet saved when ctx ends is saved before Run returns.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return nil
		case <-w.wake:
			w.flush()
		}
	}
}

func (w *Writer) flush() {
	w.mu.Lock()
	next := w.latest
	w.latest = nil
	w.mu.Unlock()
	if next == nil {
		return
	}

	if err := Save(w.path, next, w.compression); err != nil {
		// The previous snapshot stays in place.
		w.logger.Error("saving snapshot failed", "revision", next.Revision, "error", err)
		return
	}
	w.logger.Debug("snapshot saved", "revision", next.Revision)
	if w.onSaved != nil {
		w.onSaved(next.Revision)
	}
}
