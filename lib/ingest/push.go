// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"slices"
	"strings"
)

// Commit is one commit of a push.
type Commit struct {
	ID       string
	Message  string
	Added    []string
	Modified []string
	Removed  []string
}

// Push is a decoded push notification.
type Push struct {
	Ref        string
	Before     string
	After      string
	CompareURL string
	// Repository is the repository name without the owner.
	Repository string
	// FullName is "owner/name".
	FullName string
	Sender   string
	Commits  []Commit
}

// ChangeSet is the net set of files a push touched.
type ChangeSet struct {
	Ref        string
	Before     string
	After      string
	CompareURL string
	Repository string
	// Truncated is set when the push carried as many commits as GitHub
	// includes in a payload, so Files may be incomplete. Consumers that
	// can compare Before and After should do so.
	Truncated bool
	// Files is the union of added, modified, and removed paths across
	// all commits, each listed once, in first-seen order.
	Files []string
}

// MaxPayloadCommits is the most commits GitHub includes in one push
// payload.
const MaxPayloadCommits = 20

// NewChangeSet collapses push into a ChangeSet.
func NewChangeSet(push Push) ChangeSet {
	seen := make(map[string]struct{})
	var files []string
	for _, commit := range push.Commits {
		for _, group := range [][]string{commit.Added, commit.Modified, commit.Removed} {
			for _, path := range group {
				if _, ok := seen[path]; ok {
					continue
				}
				seen[path] = struct{}{}
				files = append(files, path)
			}
		}
	}
	return ChangeSet{
		Ref:        push.Ref,
		Before:     push.Before,
		After:      push.After,
		CompareURL: push.CompareURL,
		Repository: push.Repository,
		Truncated:  len(push.Commits) >= MaxPayloadCommits,
		Files:      files,
	}
}

// Default filter values.
const (
	DefaultAutomationMarker = "[auto] "
)

// DefaultBranches are the refs tracked when none are configured.
var DefaultBranches = []string{"refs/heads/master", "refs/heads/main"}

// PushFilter decides which pushes trigger an update.
type PushFilter struct {
	// Branches lists the tracked refs. Entries without a "refs/"
	// prefix are treated as branch names.
	Branches []string
	// AutomationMarker prefixes commit messages written by the
	// dataset's own automation. A push made of exactly one such commit
	// is ignored. Empty disables the check.
	AutomationMarker string
}

// DefaultPushFilter tracks main and master and skips "[auto] " commits.
func DefaultPushFilter() PushFilter {
	return PushFilter{
		Branches:         slices.Clone(DefaultBranches),
		AutomationMarker: DefaultAutomationMarker,
	}
}

// Rejection explains why a push was ignored. Empty means accepted.
type Rejection string

const (
	RejectUntrackedRef Rejection = "untracked ref"
	RejectAutomation   Rejection = "automation commit"
)

// Check returns the reason push should be ignored, or "" to accept it.
func (f PushFilter) Check(push Push) Rejection {
	if !f.tracks(push.Ref) {
		return RejectUntrackedRef
	}
	if f.AutomationMarker != "" && len(push.Commits) == 1 &&
		strings.HasPrefix(push.Commits[0].Message, f.AutomationMarker) {
		return RejectAutomation
	}
	return ""
}

func (f PushFilter) tracks(ref string) bool {
	for _, branch := range f.Branches {
		if !strings.HasPrefix(branch, "refs/") {
			branch = "refs/heads/" + branch
		}
		if ref == branch {
			return true
		}
	}
	return false
}
