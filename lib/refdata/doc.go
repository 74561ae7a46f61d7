// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package refdata holds the reference context every handler reads: the
// card table, API constants, system strings, banlists, id maps, query
// shortcuts, image sources, and indexes derived from them.
//
// A [Context] is immutable once published. Changes arrive as an
// [Update], a struct of pointer fields where nil means "leave
// unchanged", and are folded in by the pure [Merge] function. Merge
// also recomputes every [DerivedIndex] whose declared source fields the
// update touched, so a derived index is never observed out of step with
// its sources.
//
// [Store] publishes contexts copy-on-write. Readers call Snapshot and
// keep the returned pointer for as long as they like; the single writer
// (the dispatch loop) calls Apply.
package refdata
