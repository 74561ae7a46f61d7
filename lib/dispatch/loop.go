// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/refdata"
)

// DefaultQueueSize is the intake buffer used when Config.QueueSize is
// not positive.
const DefaultQueueSize = 64

// Router receives failures. *alert.Router satisfies it.
type Router interface {
	Route(ctx context.Context, report *alert.Report, origin *alert.Origin)
}

// Config configures a Loop.
type Config struct {
	// Store is owned by the loop from here on: nothing else may call
	// Apply.
	Store  *refdata.Store
	Router Router
	Logger *slog.Logger

	// OnApply, if set, runs on the loop goroutine after every applied
	// update, with the published context and the update itself. The
	// next result is not taken until it returns.
	OnApply func(published *refdata.Context, update *refdata.Update)

	QueueSize int
}

type submission struct {
	origin *alert.Origin
	result Result
}

// Loop serializes result application.
type Loop struct {
	store   *refdata.Store
	router  Router
	logger  *slog.Logger
	onApply func(*refdata.Context, *refdata.Update)
	intake  chan submission
}

// NewLoop creates a Loop. Panics if Store or Router is nil.
func NewLoop(config Config) *Loop {
	if config.Store == nil {
		panic("dispatch.NewLoop: Store is required")
	}
	if config.Router == nil {
		panic("dispatch.NewLoop: Router is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	return &Loop{
		store:   config.Store,
		router:  config.Router,
		logger:  config.Logger.With("component", "dispatch"),
		onApply: config.OnApply,
		intake:  make(chan submission, config.QueueSize),
	}
}

// Snapshot returns the current reference context.
func (l *Loop) Snapshot() *refdata.Context {
	return l.store.Snapshot()
}

// Submit queues a completed result. It blocks while the intake is full
// and returns ctx's error if ctx ends first.
func (l *Loop) Submit(ctx context.Context, origin *alert.Origin, result Result) error {
	select {
	case l.intake <- submission{origin: origin, result: result}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoke runs handler on its own goroutine against the current
// snapshot and submits its result. A panic in handler becomes a
// developer-only failure. origin.ID is filled with a fresh invocation
// id when empty. The returned channel is closed once the result has
// been queued (or ctx ended).
func (l *Loop) Invoke(ctx context.Context, origin *alert.Origin, handler Handler) <-chan struct{} {
	if origin == nil {
		origin = &alert.Origin{}
	}
	if origin.ID == "" {
		origin.ID = uuid.NewString()
	}
	logger := l.logger.With("invocation_id", origin.ID, "origin", origin.Describe())
	logger.Debug("handler invoked")

	done := make(chan struct{})
	go func() {
		defer close(done)
		result := l.run(ctx, handler, logger)
		if err := l.Submit(ctx, origin, result); err != nil {
			logger.Debug("result dropped at shutdown", "error", err)
		}
	}()
	return done
}

func (l *Loop) run(ctx context.Context, handler Handler, logger *slog.Logger) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("handler panicked", "panic", recovered)
			result = Failure(alert.Developerf("panic: %v\n\n%s", recovered, debug.Stack()))
		}
	}()
	return handler(ctx, l.store.Snapshot())
}

// Run applies queued results until ctx ends. Results still queued at
// that point are abandoned.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("dispatch loop started", "revision", l.store.Snapshot().Revision)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("dispatch loop stopped", "pending", len(l.intake))
			return nil
		case next := <-l.intake:
			l.apply(ctx, next)
		}
	}
}

func (l *Loop) apply(ctx context.Context, next submission) {
	if next.result.Failed() {
		l.router.Route(ctx, alert.FromError(next.result.Err()), next.origin)
		return
	}

	update := next.result.Update()
	fields := update.Fields()
	if fields == 0 {
		return
	}

	published := l.store.Apply(update)
	var rebuilt []string
	for _, index := range refdata.DerivedIndexes() {
		if fields.Intersects(index.Sources) {
			rebuilt = append(rebuilt, index.Name)
		}
	}
	l.logger.Info("reference context updated",
		"fields", fields.String(),
		"rebuilt", rebuilt,
		"revision", published.Revision,
		"origin", next.origin.Describe(),
	)
	if l.onApply != nil {
		l.onApply(published, update)
	}
}
