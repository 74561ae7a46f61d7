// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch runs handlers and applies their results.
//
// A [Handler] reads an immutable reference-context snapshot and returns
// a [Result]: a failure, or success with an optional partial update.
// Handlers run concurrently ([Loop.Invoke]); their results are applied
// by [Loop.Run] strictly one at a time, in the order they arrive on a
// single intake channel. A successful update is merged into the store
// and published before the next result is looked at. A failure is
// handed to the alert router.
//
// A handler that read a snapshot before another update was applied
// still has its own update applied as is. Updates replace whole
// fields, so two handlers touching disjoint fields never interfere.
package dispatch
