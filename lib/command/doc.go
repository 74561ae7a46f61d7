// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package command implements the bot's chat commands.
//
// A message whose body starts with the configured prefix is a command
// invocation: the first word after the prefix names the command (or
// one of its aliases) and the rest is its argument string. Registry
// turns an invocation into a dispatch handler, so commands run
// concurrently against an immutable snapshot and may return a partial
// update like any other handler.
//
// Developer-only commands are refused for everyone except the dev
// admin, senders listed as dev users, and anyone speaking in the dev
// room.
package command
