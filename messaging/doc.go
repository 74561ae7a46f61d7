// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the parts of the Matrix client-server API the
// bot needs: incremental /sync with long-polling, sending messages,
// joining rooms it is invited to, and validating its access token.
//
// [Client] holds the homeserver URL and HTTP transport. [DirectSession]
// adds an access token held in mmap-backed [secret.Buffer] memory;
// callers must Close it. The [Session] interface is what the rest of
// the bot depends on, so tests substitute a fake.
//
// All API errors are returned as [*MatrixError] with the Matrix error
// code and HTTP status. [IsMatrixError] tests for a specific code.
//
// Replies are rendered from markdown with [NewMarkdownMessage], which
// fills both the plain body and the org.matrix.custom.html
// formatted_body.
package messaging
