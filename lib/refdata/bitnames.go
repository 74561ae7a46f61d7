// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package refdata

import (
	"maps"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BitNames resolves flag bits of the API constant enums to display
// names and back. A system string whose Kind equals a constant's Enum
// and whose Value equals the constant's value supplies the display
// name; otherwise the name is derived from the constant identifier
// (TYPE_SPELL becomes "Spell").
type BitNames struct {
	byEnum map[string]map[int64]string
	byName map[string]BitRef
}

// BitRef is one enum bit.
type BitRef struct {
	Enum  string
	Value int64
}

// Casers carry state and must not be shared between goroutines.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// BuildBitNames builds the index from the constant and system-string
// tables. Constants without an Enum are not flags and are skipped.
func BuildBitNames(yard Yard, systrings Systrings) *BitNames {
	overrides := make(map[BitRef]string)
	for _, systring := range systrings {
		overrides[BitRef{Enum: systring.Kind, Value: systring.Value}] = systring.Name
	}

	index := &BitNames{
		byEnum: make(map[string]map[int64]string),
		byName: make(map[string]BitRef),
	}
	for _, constant := range yard.Constants {
		if constant.Enum == "" {
			continue
		}
		bit := BitRef{Enum: constant.Enum, Value: constant.Value}
		name, ok := overrides[bit]
		if !ok {
			name = displayName(constant.Name)
		}

		values := index.byEnum[constant.Enum]
		if values == nil {
			values = make(map[int64]string)
			index.byEnum[constant.Enum] = values
		}
		if _, exists := values[constant.Value]; exists {
			continue
		}
		values[constant.Value] = name
		index.byName[foldName(name)] = bit
	}
	return index
}

// displayName turns "TYPE_SPELL" or "RACE_SEASERPENT" into "Spell" or
// "Seaserpent". Names with no underscore are title-cased whole.
func displayName(identifier string) string {
	if _, rest, found := strings.Cut(identifier, "_"); found && rest != "" {
		identifier = rest
	}
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(identifier), "_", " "))
}

// Name returns the display name of value within enum.
func (b *BitNames) Name(enum string, value int64) (string, bool) {
	if b == nil {
		return "", false
	}
	name, ok := b.byEnum[enum][value]
	return name, ok
}

// Names returns the display names of every set bit of flags within
// enum, lowest bit first. Unknown bits are skipped.
func (b *BitNames) Names(enum string, flags int64) []string {
	var names []string
	for bit := int64(1); bit != 0 && bit <= flags; bit <<= 1 {
		if flags&bit == 0 {
			continue
		}
		if name, ok := b.Name(enum, bit); ok {
			names = append(names, name)
		}
	}
	return names
}

// Lookup resolves a display name, compared case-insensitively, to its
// enum bit.
func (b *BitNames) Lookup(name string) (BitRef, bool) {
	if b == nil {
		return BitRef{}, false
	}
	bit, ok := b.byName[foldName(name)]
	return bit, ok
}

// Len returns the number of indexed bits.
func (b *BitNames) Len() int {
	if b == nil {
		return 0
	}
	return len(b.byName)
}

// Equal reports whether two indexes hold the same mappings.
func (b *BitNames) Equal(other *BitNames) bool {
	if b == nil || other == nil {
		return b.Len() == 0 && other.Len() == 0
	}
	return maps.EqualFunc(b.byEnum, other.byEnum, maps.Equal) &&
		maps.Equal(b.byName, other.byName)
}
