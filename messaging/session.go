// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"

	"github.com/tcgref/tcgref/lib/ref"
)

// Session is the set of Matrix operations the bot performs.
type Session interface {
	// UserID returns the bot's own user ID.
	UserID() ref.UserID

	// WhoAmI validates the access token and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// SendMessage sends an m.room.message to a room and returns the
	// event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// JoinRoom joins a room by ID.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// Sync performs one /sync request.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)

	// Close releases the session's credentials. Idempotent.
	Close() error
}

var _ Session = (*DirectSession)(nil)
