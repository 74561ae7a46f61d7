// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed decrypts age-encrypted secret files. Operators who
// keep the bot's credentials in a repository or on shared storage can
// encrypt each file to the bot host's x25519 key; a secret path ending
// in ".age" is decrypted with the configured identity at startup.
//
// Both binary and ASCII-armored age files are accepted. Identities and
// decrypted plaintext live in [secret.Buffer] memory.
package sealed
