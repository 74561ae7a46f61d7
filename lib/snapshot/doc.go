// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists the published reference context so a
// restart can serve lookups when the dataset source is unreachable.
//
// A snapshot file is a fixed header followed by the CBOR encoding of
// the context's source fields, optionally compressed:
//
//	magic        4 bytes  "TCGS"
//	version      1 byte   1
//	compression  1 byte   0 none, 1 lz4, 2 zstd
//	size         8 bytes  uncompressed payload length, little endian
//	payload
//
// Derived indexes are not stored; Decode rebuilds them.
package snapshot
