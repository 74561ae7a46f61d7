// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package github is a small GitHub REST API client covering what the
// dataset loader needs: repository contents and commit comparisons.
//
// The client authenticates with a token held in a secret.Buffer,
// honors the X-RateLimit-* headers with one automatic backoff, and
// sends conditional requests (ETags) so unchanged files do not consume
// rate limit quota. Non-2xx responses surface as *APIError.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base URLs.
package github
