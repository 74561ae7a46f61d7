// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/command"
	"github.com/tcgref/tcgref/lib/dispatch"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/refdata"
	"github.com/tcgref/tcgref/messaging"
)

// CommandListener dispatches command invocations found in messages.
func CommandListener(registry *command.Registry) Listener {
	return func(event Event) (*alert.Origin, dispatch.Handler, bool) {
		invocation, ok := registry.Match(event.RoomID, event.Matrix)
		if !ok {
			return nil, nil, false
		}
		return invocation.Origin, invocation.Handler, true
	}
}

// Joiner joins rooms. messaging.Session satisfies it.
type Joiner interface {
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)
}

// InviteListener joins every room the bot is invited to.
func InviteListener(joiner Joiner) Listener {
	return func(event Event) (*alert.Origin, dispatch.Handler, bool) {
		return nil, func(ctx context.Context, _ *refdata.Context) dispatch.Result {
			if _, err := joiner.JoinRoom(ctx, event.RoomID); err != nil {
				return dispatch.Failure(fmt.Errorf("joining %s after an invite from %s: %w", event.RoomID, event.Matrix.Sender, err))
			}
			return dispatch.Success(nil)
		}, true
	}
}

// ReadyListener announces startup in logsRoom. A zero logsRoom
// disables the announcement.
func ReadyListener(messenger alert.Messenger, logsRoom ref.RoomID, version string) Listener {
	return func(event Event) (*alert.Origin, dispatch.Handler, bool) {
		if logsRoom.IsZero() {
			return nil, nil, false
		}
		return nil, func(ctx context.Context, snapshot *refdata.Context) dispatch.Result {
			message := fmt.Sprintf("tcgref %s is online: %d cards, dataset revision %d.", version, len(snapshot.Babel), snapshot.Revision)
			if _, err := messenger.SendMessage(ctx, logsRoom, messaging.NewNotice(message)); err != nil {
				return dispatch.Failure(fmt.Errorf("announcing startup in %s: %w", logsRoom, err))
			}
			return dispatch.Success(nil)
		}, true
	}
}
