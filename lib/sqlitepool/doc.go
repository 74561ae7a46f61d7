// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite connection pools with the pragmas
// the bot relies on (WAL, busy timeout, in-memory temp store). The
// alert journal is its consumer.
package sqlitepool
