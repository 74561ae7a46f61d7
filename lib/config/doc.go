// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the bot's YAML configuration.
//
// Configuration is loaded from a single file named by either the
// TCGREF_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no fallback file.
//
// The file may carry development and production sections that override
// base values when [Config].Environment matches. Production without an
// explicit section disables the local dataset watcher.
//
// ${VAR} and ${VAR:-default} patterns are expanded in path and URL
// fields after loading. Environment variables never override keys.
//
// [Config.Validate] reports every invalid key at once; each is a
// [*Error] naming the key.
package config
