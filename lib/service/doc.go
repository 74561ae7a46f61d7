// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package service holds the bot's inbound HTTP surface: a TCP
// [HTTPServer] with graceful shutdown, and [VerifyWebhookHMAC] for
// authenticating repository-host webhooks.
package service
