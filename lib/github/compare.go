// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"net/url"
)

// ChangedFile is one file in a comparison.
type ChangedFile struct {
	Filename string `json:"filename"`
	// Status is "added", "removed", "modified", "renamed", "copied",
	// "changed", or "unchanged".
	Status           string `json:"status"`
	PreviousFilename string `json:"previous_filename,omitempty"`
}

// Comparison is the result of comparing two commits.
type Comparison struct {
	Status       string        `json:"status"`
	AheadBy      int           `json:"ahead_by"`
	TotalCommits int           `json:"total_commits"`
	Files        []ChangedFile `json:"files"`
}

// Paths returns every path the comparison touched, including the old
// name of renamed files.
func (comparison *Comparison) Paths() []string {
	paths := make([]string, 0, len(comparison.Files))
	for _, file := range comparison.Files {
		if file.PreviousFilename != "" {
			paths = append(paths, file.PreviousFilename)
		}
		paths = append(paths, file.Filename)
	}
	return paths
}

// Compare compares base and head. GitHub returns at most 300 files.
func (client *Client) Compare(ctx context.Context, repo Repository, base, head string) (*Comparison, error) {
	path := repoPath(repo.Owner, repo.Name, "compare", url.PathEscape(base)+"..."+url.PathEscape(head))
	var comparison Comparison
	if err := client.get(ctx, path, &comparison); err != nil {
		return nil, fmt.Errorf("comparing %s...%s in %s/%s: %w", base, head, repo.Owner, repo.Name, err)
	}
	return &comparison, nil
}
