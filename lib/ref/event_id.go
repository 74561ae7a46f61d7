// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EventID is a Matrix event ID. Modern room versions use "$" followed by
// a hash with no server part, so nothing past the sigil is checked.
type EventID struct {
	id string
}

// ParseEventID validates a raw event ID.
func ParseEventID(raw string) (EventID, error) {
	if _, _, err := eventGrammar.split(raw); err != nil {
		return EventID{}, err
	}
	return EventID{id: raw}, nil
}

// MustParseEventID panics when raw is not an event ID.
func MustParseEventID(raw string) EventID {
	return mustParse("MustParseEventID", raw, ParseEventID)
}

func (e EventID) String() string { return e.id }

func (e EventID) IsZero() bool { return e.id == "" }

func (e EventID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

func (e *EventID) UnmarshalText(data []byte) error {
	return unmarshalText(data, e, ParseEventID)
}
