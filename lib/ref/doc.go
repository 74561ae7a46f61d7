// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref holds validated Matrix identifiers: room IDs, user IDs,
// and event IDs. Raw strings from configuration and /sync responses are
// parsed into these types at the boundary, so the rest of the bot never
// sends to a malformed room.
//
// All three types are immutable values whose zero value means "unset"
// and marshal to their canonical string through encoding.TextMarshaler.
package ref
