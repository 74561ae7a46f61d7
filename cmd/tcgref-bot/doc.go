// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// tcgref-bot is the card reference bot. It answers commands in Matrix
// rooms and keeps its reference dataset current from a GitHub
// repository (push webhooks) or a local directory (filesystem watch).
//
// Configuration comes from the YAML file named by --config or the
// TCGREF_CONFIG environment variable. Secrets are read from the files
// the configuration names; files ending in .age are decrypted with the
// configured age identity.
//
// The process exits with status 1 on SIGINT or SIGTERM so that its
// supervisor restarts it and the dataset is loaded fresh.
package main
