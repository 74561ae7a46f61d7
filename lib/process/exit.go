// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the binary's exit paths. Startup failures are
// reported before the structured logger exists, so they go straight to
// stderr.
package process

import (
	"fmt"
	"os"
)

// ExitInterrupted is the status used when the bot stops on a signal.
// A signal-driven stop is reported as a failure so the supervisor
// restarts the process and it resynchronizes from the repository.
const ExitInterrupted = 1

// Fatal writes "error: err" to stderr and exits with status 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// Exit terminates the process with code.
func Exit(code int) {
	os.Exit(code)
}
