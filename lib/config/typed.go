// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"time"

	"github.com/tcgref/tcgref/lib/logging"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/snapshot"
)

// The accessors below convert validated strings to their typed form.
// They return zero values for input Validate would reject.

// DevAdminID returns the developer admin, or zero.
func (b BotConfig) DevAdminID() ref.UserID {
	id, _ := ref.ParseUserID(b.DevAdmin)
	return id
}

// DevRoomID returns the developer room, or zero.
func (b BotConfig) DevRoomID() ref.RoomID {
	id, _ := ref.ParseRoomID(b.DevRoom)
	return id
}

// LogsRoomID returns the logs room, or zero.
func (b BotConfig) LogsRoomID() ref.RoomID {
	id, _ := ref.ParseRoomID(b.LogsRoom)
	return id
}

// DevUserIDs returns the listed developers by name.
func (b BotConfig) DevUserIDs() map[string]ref.UserID {
	users := make(map[string]ref.UserID, len(b.DevUsers))
	for name, raw := range b.DevUsers {
		if id, err := ref.ParseUserID(raw); err == nil {
			users[name] = id
		}
	}
	return users
}

// ID returns the bot's user ID.
func (m MatrixConfig) ID() ref.UserID {
	id, _ := ref.ParseUserID(m.UserID)
	return id
}

// SyncTimeoutDuration returns the parsed sync timeout.
func (m MatrixConfig) SyncTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(m.SyncTimeout)
	return d
}

// DebounceDuration returns the parsed watcher debounce.
func (d DatasetConfig) DebounceDuration() time.Duration {
	duration, _ := time.ParseDuration(d.Debounce)
	return duration
}

// CompressionKind returns the parsed snapshot compression.
func (c CacheConfig) CompressionKind() snapshot.Compression {
	compression, _ := snapshot.ParseCompression(c.Compression)
	return compression
}

// LevelValue returns the parsed log level.
func (l LogConfig) LevelValue() slog.Level {
	level, _ := logging.ParseLevel(l.Level)
	return level
}
