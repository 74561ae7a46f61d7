// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/dispatch"
)

// State is the ingest worker's state.
type State int32

const (
	Idle State = iota
	Processing
)

func (s State) String() string {
	if s == Processing {
		return "processing"
	}
	return "idle"
}

// Invoker runs handlers on the dispatch loop. *dispatch.Loop
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, origin *alert.Origin, handler dispatch.Handler) <-chan struct{}
}

// Config configures an Ingest.
type Config struct {
	Filter  PushFilter
	Invoker Invoker
	// Handler builds the update handler for a change set.
	Handler func(changes ChangeSet) dispatch.Handler
	Logger  *slog.Logger
}

type queued struct {
	changes ChangeSet
	kind    alert.Kind
}

// Ingest queues change sets and feeds them to the dispatch loop one at
// a time.
type Ingest struct {
	filter  PushFilter
	invoker Invoker
	handler func(ChangeSet) dispatch.Handler
	logger  *slog.Logger

	mu      sync.Mutex
	pending []queued
	wake    chan struct{}

	state atomic.Int32
}

// New creates an Ingest. Panics if Invoker or Handler is nil.
func New(config Config) *Ingest {
	if config.Invoker == nil {
		panic("ingest.New: Invoker is required")
	}
	if config.Handler == nil {
		panic("ingest.New: Handler is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Ingest{
		filter:  config.Filter,
		invoker: config.Invoker,
		handler: config.Handler,
		logger:  config.Logger.With("component", "ingest"),
		wake:    make(chan struct{}, 1),
	}
}

// HandlePush filters push and queues its change set. It reports
// whether the push was accepted. Rejections are routine and only
// logged at debug level.
func (i *Ingest) HandlePush(push Push) bool {
	if reason := i.filter.Check(push); reason != "" {
		i.logger.Debug("push ignored",
			"reason", string(reason),
			"ref", push.Ref,
			"repository", push.FullName,
			"commits", len(push.Commits),
		)
		return false
	}
	i.Enqueue(NewChangeSet(push), alert.KindWebhook)
	return true
}

// Enqueue queues a change set that bypasses push filtering, such as
// one produced by the local dataset watcher.
func (i *Ingest) Enqueue(changes ChangeSet, kind alert.Kind) {
	i.mu.Lock()
	i.pending = append(i.pending, queued{changes: changes, kind: kind})
	depth := len(i.pending)
	i.mu.Unlock()

	i.logger.Info("change set queued",
		"repository", changes.Repository,
		"files", len(changes.Files),
		"queue_depth", depth,
	)
	select {
	case i.wake <- struct{}{}:
	default:
	}
}

// State returns whether a change set is being processed.
func (i *Ingest) State() State {
	return State(i.state.Load())
}

// Pending returns the number of queued change sets.
func (i *Ingest) Pending() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.pending)
}

// Run processes queued change sets until ctx ends. Each change set's
// handler has submitted its result before the next one starts. Change
// sets still queued when ctx ends are left unprocessed.
func (i *Ingest) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		next, ok := i.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-i.wake:
				continue
			}
		}

		i.state.Store(int32(Processing))
		origin := &alert.Origin{Kind: next.kind, Name: next.changes.Repository}
		done := i.invoker.Invoke(ctx, origin, i.handler(next.changes))
		select {
		case <-done:
		case <-ctx.Done():
			i.state.Store(int32(Idle))
			return nil
		}
		i.state.Store(int32(Idle))
	}
}

func (i *Ingest) pop() (queued, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.pending) == 0 {
		return queued{}, false
	}
	next := i.pending[0]
	i.pending = i.pending[1:]
	return next, true
}
