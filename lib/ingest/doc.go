// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package ingest turns repository pushes into reference-context
// updates.
//
// [WebhookHandler] authenticates GitHub webhook deliveries, drops
// replays, and decodes push payloads into a [Push]. [Ingest] filters
// each push through a [PushFilter] (tracked branches only, and not a
// lone automation commit), collapses its commits into one [ChangeSet],
// and runs exactly one update handler for it on the dispatch loop.
// Change sets are processed one at a time in arrival order; a push
// that arrives while another is processing waits in the queue.
package ingest
