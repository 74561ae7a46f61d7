// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credentials (the Matrix access token, the
// webhook HMAC key, the GitHub token) in memory allocated outside the
// Go heap. A [Buffer] is mmap-backed, locked against swap, excluded
// from core dumps, and zeroed on Close.
//
// [ReadFile] is the entry point used at startup: every secret the bot
// needs is named by a file path in the configuration, never inlined.
package secret
