// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot connects the Matrix /sync stream to the dispatch loop.
//
// Sync events are classified into a small set of kinds (message,
// invite, ready) and handed to the listeners registered for that kind
// in an EventRegistry. A listener decides whether the event warrants a
// handler; if so the handler runs on the dispatch loop like every
// other trigger, so its failures are routed and its updates applied in
// order.
//
// Timeline events from the initial sync are history and are not
// dispatched. Invites found in the initial sync are.
package bot
