// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads. Every API response the
// bot consumes (Matrix, GitHub) goes through [ReadResponse] so a
// misbehaving server cannot exhaust memory.
package netutil

import (
	"io"
	"unicode/utf8"
)

// MaxResponseSize bounds API response bodies. Dataset files fetched
// through the contents API are the largest legitimate bodies.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads at most MaxResponseSize bytes from body.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// Truncate returns body as a string of at most limit bytes for error
// messages, cut on a rune boundary and marked with "..." when cut.
func Truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
