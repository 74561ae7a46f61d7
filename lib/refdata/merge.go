// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package refdata

// DerivedIndex is a value computed from source fields of a Context.
// Build reads the (already merged) sources from its argument and stores
// the result on it.
type DerivedIndex struct {
	Name    string
	Sources FieldSet
	Build   func(*Context)
}

// derivedIndexes is the dependency table Merge consults. Adding a
// derived index means adding a row here, nothing else.
var derivedIndexes = []DerivedIndex{
	{
		Name:    "bitNames",
		Sources: Fields(FieldYard, FieldSystrings),
		Build: func(c *Context) {
			c.BitNames = BuildBitNames(c.Yard, c.Systrings)
		},
	},
}

// DerivedIndexes returns the derived index table.
func DerivedIndexes() []DerivedIndex {
	return append([]DerivedIndex(nil), derivedIndexes...)
}

// Merge returns base with every field present in update replaced, and
// every derived index whose sources intersect the update rebuilt. base
// is not modified. When update sets nothing, base itself is returned.
func Merge(base *Context, update *Update) *Context {
	touched := update.Fields()
	if touched == 0 {
		return base
	}

	next := *base
	if update.Babel != nil {
		next.Babel = *update.Babel
	}
	if update.Yard != nil {
		next.Yard = *update.Yard
	}
	if update.Systrings != nil {
		next.Systrings = *update.Systrings
	}
	if update.Banlists != nil {
		next.Banlists = *update.Banlists
	}
	if update.BetaIDs != nil {
		next.BetaIDs = *update.BetaIDs
	}
	if update.KonamiIDs != nil {
		next.KonamiIDs = *update.KonamiIDs
	}
	if update.Shortcuts != nil {
		next.Shortcuts = *update.Shortcuts
	}
	if update.Pics != nil {
		next.Pics = *update.Pics
	}

	for _, index := range derivedIndexes {
		if touched.Intersects(index.Sources) {
			index.Build(&next)
		}
	}
	return &next
}
