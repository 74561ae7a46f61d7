// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/dispatch"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/messaging"
)

// EventKind names a class of platform event.
type EventKind string

const (
	// EventMessage is a timeline message in a joined room.
	EventMessage EventKind = "message"
	// EventInvite is an invitation to a room.
	EventInvite EventKind = "invite"
	// EventReady fires once, after the initial sync.
	EventReady EventKind = "ready"
)

// Event is one classified platform event. Matrix is the raw event for
// message and invite kinds (for invites, the bot's own membership
// event when the server sent one) and zero for ready.
type Event struct {
	Kind   EventKind
	RoomID ref.RoomID
	Matrix messaging.Event
}

// Listener inspects an event and returns the handler to run for it,
// with the origin failures are reported against. ok is false when the
// event needs no handling.
type Listener func(event Event) (origin *alert.Origin, handler dispatch.Handler, ok bool)

// Invoker runs handlers on the dispatch loop. *dispatch.Loop
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, origin *alert.Origin, handler dispatch.Handler) <-chan struct{}
}

// EventRegistry maps event kinds to listeners.
type EventRegistry struct {
	invoker Invoker
	logger  *slog.Logger

	mu        sync.RWMutex
	listeners map[EventKind][]Listener
}

// NewEventRegistry creates an empty registry. Panics if invoker is nil.
func NewEventRegistry(invoker Invoker, logger *slog.Logger) *EventRegistry {
	if invoker == nil {
		panic("bot.NewEventRegistry: invoker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRegistry{
		invoker:   invoker,
		logger:    logger.With("component", "events"),
		listeners: make(map[EventKind][]Listener),
	}
}

// On registers listener for kind. Listeners run in registration order.
func (r *EventRegistry) On(kind EventKind, listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[kind] = append(r.listeners[kind], listener)
}

// Emit offers event to every listener for its kind and invokes the
// handlers they return. It does not wait for the handlers.
func (r *EventRegistry) Emit(ctx context.Context, event Event) int {
	r.mu.RLock()
	listeners := r.listeners[event.Kind]
	r.mu.RUnlock()

	invoked := 0
	for _, listener := range listeners {
		origin, handler, ok := listener(event)
		if !ok {
			continue
		}
		if origin == nil {
			origin = &alert.Origin{
				Kind:    alert.KindEvent,
				Name:    string(event.Kind),
				RoomID:  event.RoomID,
				EventID: event.Matrix.EventID,
				Sender:  event.Matrix.Sender,
			}
		}
		r.invoker.Invoke(ctx, origin, handler)
		invoked++
	}
	if invoked > 0 {
		r.logger.Debug("event dispatched", "kind", string(event.Kind), "room_id", event.RoomID, "handlers", invoked)
	}
	return invoked
}
