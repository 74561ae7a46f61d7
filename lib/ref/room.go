// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// RoomID is a Matrix room ID such as "!abc123:example.org". Rooms are
// created by the homeserver; the bot only parses them.
type RoomID struct {
	id string
}

// ParseRoomID validates a raw room ID.
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := roomGrammar.split(raw); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID panics when raw is not a room ID.
func MustParseRoomID(raw string) RoomID {
	return mustParse("MustParseRoomID", raw, ParseRoomID)
}

func (r RoomID) String() string { return r.id }

func (r RoomID) IsZero() bool { return r.id == "" }

func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

func (r *RoomID) UnmarshalText(data []byte) error {
	return unmarshalText(data, r, ParseRoomID)
}
