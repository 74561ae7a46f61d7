// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package refdata

import (
	"strings"
	"time"
)

// Context is the reference context handlers read. Never mutate a
// Context obtained from a Store or returned by Merge.
type Context struct {
	Babel     Babel
	Yard      Yard
	Systrings Systrings
	Banlists  Banlists
	BetaIDs   BetaIDs
	KonamiIDs KonamiIDs
	Shortcuts Shortcuts
	Pics      Pics

	// BitNames is derived from Yard and Systrings.
	BitNames *BitNames

	// Revision counts applied non-empty updates. Set by Store.
	Revision uint64

	// UpdatedAt is when the Store last published a change.
	UpdatedAt time.Time
}

// Empty returns a context with no data and consistent derived indexes.
func Empty() *Context {
	return Merge(&Context{}, &Update{Yard: &Yard{}, Systrings: &Systrings{}})
}

// Full returns an Update that sets every source field of c. Applying it
// to any context reproduces c's data.
func (c *Context) Full() *Update {
	babel, yard, systrings := c.Babel, c.Yard, c.Systrings
	banlists, betaIDs, konamiIDs := c.Banlists, c.BetaIDs, c.KonamiIDs
	shortcuts, pics := c.Shortcuts, c.Pics
	return &Update{
		Babel:     &babel,
		Yard:      &yard,
		Systrings: &systrings,
		Banlists:  &banlists,
		BetaIDs:   &betaIDs,
		KonamiIDs: &konamiIDs,
		Shortcuts: &shortcuts,
		Pics:      &pics,
	}
}

// Field names one source field of a Context.
type Field uint16

const (
	FieldBabel Field = 1 << iota
	FieldYard
	FieldSystrings
	FieldBanlists
	FieldBetaIDs
	FieldKonamiIDs
	FieldShortcuts
	FieldPics
)

// AllFields lists every source field in declaration order.
var AllFields = []Field{
	FieldBabel, FieldYard, FieldSystrings, FieldBanlists,
	FieldBetaIDs, FieldKonamiIDs, FieldShortcuts, FieldPics,
}

var fieldNames = map[Field]string{
	FieldBabel:     "babel",
	FieldYard:      "yard",
	FieldSystrings: "systrings",
	FieldBanlists:  "banlists",
	FieldBetaIDs:   "betaIds",
	FieldKonamiIDs: "konamiIds",
	FieldShortcuts: "shortcuts",
	FieldPics:      "pics",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// FieldSet is a set of fields.
type FieldSet uint16

// Fields builds a set from fields.
func Fields(fields ...Field) FieldSet {
	var set FieldSet
	for _, field := range fields {
		set |= FieldSet(field)
	}
	return set
}

// Has reports whether field is in the set.
func (s FieldSet) Has(field Field) bool { return s&FieldSet(field) != 0 }

// Intersects reports whether the sets share a field.
func (s FieldSet) Intersects(other FieldSet) bool { return s&other != 0 }

// List returns the fields in declaration order.
func (s FieldSet) List() []Field {
	var fields []Field
	for _, field := range AllFields {
		if s.Has(field) {
			fields = append(fields, field)
		}
	}
	return fields
}

func (s FieldSet) String() string {
	names := make([]string, 0, len(AllFields))
	for _, field := range s.List() {
		names = append(names, field.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Update is a partial change to a Context. A nil field leaves the
// corresponding context field unchanged; a non-nil field replaces it
// wholesale. A nil *Update is valid and changes nothing.
type Update struct {
	Babel     *Babel
	Yard      *Yard
	Systrings *Systrings
	Banlists  *Banlists
	BetaIDs   *BetaIDs
	KonamiIDs *KonamiIDs
	Shortcuts *Shortcuts
	Pics      *Pics
}

// Fields returns the set of fields the update sets.
func (u *Update) Fields() FieldSet {
	if u == nil {
		return 0
	}
	var set FieldSet
	if u.Babel != nil {
		set |= FieldSet(FieldBabel)
	}
	if u.Yard != nil {
		set |= FieldSet(FieldYard)
	}
	if u.Systrings != nil {
		set |= FieldSet(FieldSystrings)
	}
	if u.Banlists != nil {
		set |= FieldSet(FieldBanlists)
	}
	if u.BetaIDs != nil {
		set |= FieldSet(FieldBetaIDs)
	}
	if u.KonamiIDs != nil {
		set |= FieldSet(FieldKonamiIDs)
	}
	if u.Shortcuts != nil {
		set |= FieldSet(FieldShortcuts)
	}
	if u.Pics != nil {
		set |= FieldSet(FieldPics)
	}
	return set
}

// IsEmpty reports whether the update changes nothing.
func (u *Update) IsEmpty() bool { return u.Fields() == 0 }
