// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration used for the bot's
// on-disk state: the warm-start snapshot of the reference context.
// JSON stays the format for everything that crosses the network
// (Matrix, GitHub) and for the dataset files themselves.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same context always encodes to the same bytes and a snapshot write
// can be skipped when nothing changed.
//
// Dataset types carry `json` tags only. fxamacker/cbor reads them as a
// fallback, so one tag controls field naming in both formats.
package codec
