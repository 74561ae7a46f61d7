// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package refdata

// Card is one row of the card table.
type Card struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc,omitempty"`
	Alias       int64  `json:"alias,omitempty"`
	Type        int64  `json:"type,omitempty"`
	Attribute   int64  `json:"attribute,omitempty"`
	Race        int64  `json:"race,omitempty"`
	Level       int64  `json:"level,omitempty"`
	Attack      int64  `json:"atk,omitempty"`
	Defense     int64  `json:"def,omitempty"`
	Setcode     int64  `json:"setcode,omitempty"`
	OT          int64  `json:"ot,omitempty"`
}

// Babel is the card table, in dataset order.
type Babel []Card

// Constant is a named scripting-API constant. Enum groups constants
// that share a bit space ("type", "attribute", "race", ...).
type Constant struct {
	Name  string `json:"name"`
	Enum  string `json:"enum,omitempty"`
	Value int64  `json:"value"`
}

// Yard is the scripting-API reference.
type Yard struct {
	Constants []Constant `json:"constants"`
}

// Systring is one system string. Kind is "system", "victory",
// "counter", "setname", or the name of a constant enum whose display
// names it supplies.
type Systring struct {
	Kind  string `json:"kind"`
	Value int64  `json:"value"`
	Name  string `json:"name"`
}

// Systrings is the system-string table.
type Systrings []Systring

// Banlist maps card ids to the number of copies allowed.
type Banlist struct {
	Name  string          `json:"name" yaml:"name"`
	Date  string          `json:"date,omitempty" yaml:"date,omitempty"`
	Cards map[int64]int64 `json:"cards" yaml:"cards"`
}

// Banlists is every known banlist, in dataset order.
type Banlists []Banlist

// BetaIDs maps pre-release ids to official ids.
type BetaIDs map[int64]int64

// KonamiIDs maps official ids to the Konami database ids per region.
type KonamiIDs map[int64]KonamiID

// KonamiID holds per-region Konami database ids.
type KonamiID struct {
	OCG    int64 `json:"ocg,omitempty"`
	TCG    int64 `json:"tcg,omitempty"`
	Master int64 `json:"md,omitempty"`
}

// Shortcuts maps a query shortcut to its expansion.
type Shortcuts map[string]string

// Pics configures where card images come from.
type Pics struct {
	Sources   map[string]string `json:"sources" yaml:"sources"`
	Overrides map[int64]string  `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}
