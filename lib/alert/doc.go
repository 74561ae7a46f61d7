// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package alert routes handler failures to people. A [Report] carries
// up to two messages: one for the user whose request failed, and one
// for the operators. [Router.Route] delivers the user message to the
// room the request came from and the developer message to the fixed
// operator room, annotated with what was being processed.
//
// Routing never fails from the caller's point of view. Delivery errors
// are logged and dropped, so a broken chat connection cannot stall the
// dispatch loop. Every routed report is also written to an optional
// [Journal] for the alerts command.
package alert
