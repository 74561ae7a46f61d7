// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package refdata

import (
	"sync/atomic"

	"github.com/tcgref/tcgref/lib/clock"
)

// Store holds the current Context. Snapshot is safe from any
// goroutine. Apply must be called from one goroutine at a time; the
// dispatch loop is that goroutine.
type Store struct {
	current atomic.Pointer[Context]
	clock   clock.Clock
}

// NewStore returns a store publishing initial. A nil initial starts
// from Empty. A nil clock uses the real clock.
func NewStore(initial *Context, clk clock.Clock) *Store {
	if initial == nil {
		initial = Empty()
	}
	if clk == nil {
		clk = clock.Real()
	}
	store := &Store{clock: clk}
	store.current.Store(initial)
	return store
}

// Snapshot returns the current context. The pointer stays valid and
// unchanged after later Apply calls.
func (s *Store) Snapshot() *Context {
	return s.current.Load()
}

// Apply merges update into the current context and publishes the
// result. Derived indexes are rebuilt before publication. An empty
// update publishes nothing and returns the current context.
func (s *Store) Apply(update *Update) *Context {
	base := s.current.Load()
	next := Merge(base, update)
	if next == base {
		return base
	}
	next.Revision = base.Revision + 1
	next.UpdatedAt = s.clock.Now()
	s.current.Store(next)
	return next
}
