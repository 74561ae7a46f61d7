// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// UserID is a Matrix user ID such as "@alice:example.org".
type UserID struct {
	id string
}

// ParseUserID validates a raw user ID.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := userGrammar.split(raw); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID panics when raw is not a user ID.
func MustParseUserID(raw string) UserID {
	return mustParse("MustParseUserID", raw, ParseUserID)
}

func (u UserID) String() string { return u.id }

func (u UserID) IsZero() bool { return u.id == "" }

// Localpart is the name between '@' and ':'; empty for the zero value.
func (u UserID) Localpart() string {
	local, _, _ := userGrammar.split(u.id)
	return local
}

// Server is everything after the first ':'; empty for the zero value.
func (u UserID) Server() string {
	_, server, _ := userGrammar.split(u.id)
	return server
}

func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

func (u *UserID) UnmarshalText(data []byte) error {
	return unmarshalText(data, u, ParseUserID)
}
