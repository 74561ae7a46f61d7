// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is an injectable time source. Production code takes a
// [Clock] and receives [Real]; tests pass [Fake] and move time with
// Advance, so backoff, rate-limit waits, and the webhook replay window
// are exercised without sleeping.
package clock
