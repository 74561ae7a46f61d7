// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tcgref/tcgref/lib/clock"
	"github.com/tcgref/tcgref/messaging"
)

// Sync loop defaults.
const (
	DefaultSyncTimeout = 30 * time.Second
	InitialBackoff     = time.Second
	DefaultMaxBackoff  = 30 * time.Second
)

// syncFilter limits /sync to what the bot dispatches: messages and
// membership in the timeline, nothing else.
const syncFilter = `{"presence":{"not_types":["*"]},"account_data":{"not_types":["*"]},` +
	`"room":{"timeline":{"types":["m.room.message","m.room.member"],"limit":50},` +
	`"state":{"lazy_load_members":true},"ephemeral":{"not_types":["*"]},"account_data":{"not_types":["*"]}}}`

// Config configures a Bot.
type Config struct {
	Session messaging.Session
	Events  *EventRegistry
	// Timeout is the long-poll timeout. Default DefaultSyncTimeout.
	Timeout time.Duration
	// MaxBackoff caps the retry delay after failed syncs. Default
	// DefaultMaxBackoff.
	MaxBackoff time.Duration
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Bot runs the /sync loop.
type Bot struct {
	session    messaging.Session
	events     *EventRegistry
	timeout    time.Duration
	maxBackoff time.Duration
	clock      clock.Clock
	logger     *slog.Logger
}

// New creates a Bot. Panics if Session or Events is nil.
func New(config Config) *Bot {
	if config.Session == nil {
		panic("bot.New: Session is required")
	}
	if config.Events == nil {
		panic("bot.New: Events is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSyncTimeout
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Bot{
		session:    config.Session,
		events:     config.Events,
		timeout:    config.Timeout,
		maxBackoff: config.MaxBackoff,
		clock:      config.Clock,
		logger:     config.Logger.With("component", "sync"),
	}
}

// Run performs the initial sync, emits invites found in it and the
// ready event, then long-polls until ctx ends. Failed syncs are
// retried with exponential backoff; Run only returns when ctx ends.
func (b *Bot) Run(ctx context.Context) error {
	initial, ok := b.sync(ctx, messaging.SyncOptions{Filter: syncFilter})
	if !ok {
		return nil
	}
	b.emitInvites(ctx, initial)
	b.logger.Info("initial sync complete",
		"joined_rooms", len(initial.Rooms.Join),
		"pending_invites", len(initial.Rooms.Invite),
	)
	b.events.Emit(ctx, Event{Kind: EventReady})

	since := initial.NextBatch
	for {
		response, ok := b.sync(ctx, messaging.SyncOptions{
			Since:      since,
			Timeout:    int(b.timeout.Milliseconds()),
			SetTimeout: true,
			Filter:     syncFilter,
		})
		if !ok {
			return nil
		}
		since = response.NextBatch
		b.emitInvites(ctx, response)
		b.emitMessages(ctx, response)
	}
}

// sync retries one /sync until it succeeds. ok is false when ctx ended.
func (b *Bot) sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, bool) {
	backoff := InitialBackoff
	for {
		response, err := b.session.Sync(ctx, options)
		if err == nil {
			return response, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
		b.logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, false
		case <-b.clock.After(backoff):
		}
		backoff = min(backoff*2, b.maxBackoff)
	}
}

func (b *Bot) emitInvites(ctx context.Context, response *messaging.SyncResponse) {
	self := b.session.UserID()
	for roomID, invited := range response.Rooms.Invite {
		event := Event{Kind: EventInvite, RoomID: roomID}
		for _, state := range invited.InviteState.Events {
			if state.Membership() == messaging.MembershipInvite && state.StateKey != nil && *state.StateKey == self.String() {
				event.Matrix = state
			}
		}
		b.logger.Info("room invite received", "room_id", roomID, "inviter", event.Matrix.Sender)
		b.events.Emit(ctx, event)
	}
}

func (b *Bot) emitMessages(ctx context.Context, response *messaging.SyncResponse) {
	self := b.session.UserID()
	for roomID, joined := range response.Rooms.Join {
		for _, timelineEvent := range joined.Timeline.Events {
			if timelineEvent.Type != messaging.EventTypeMessage || timelineEvent.Sender == self {
				continue
			}
			b.events.Emit(ctx, Event{Kind: EventMessage, RoomID: roomID, Matrix: timelineEvent})
		}
	}
}

// VerifyIdentity checks that the session's token belongs to the
// configured user.
func VerifyIdentity(ctx context.Context, session messaging.Session) error {
	actual, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("verifying access token: %w", err)
	}
	if actual != session.UserID() {
		return fmt.Errorf("access token belongs to %s, not %s", actual, session.UserID())
	}
	return nil
}
