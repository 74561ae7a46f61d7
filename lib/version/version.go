// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information injected with -ldflags:
//
//	go build -ldflags "-X github.com/tcgref/tcgref/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"os"
	"runtime"
)

var (
	// GitCommit is the short SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// Version is the release version.
	Version = "0.1.0-dev"
)

// Info returns "version (commit, time)".
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime)
}

// Print writes version information for binary to stdout.
func Print(binary string) {
	fmt.Fprintf(os.Stdout, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		binary, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
