// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/tcgref/tcgref/lib/github"
)

// ErrNotExist is returned (wrapped) by sources for missing paths.
var ErrNotExist = errors.New("dataset: path does not exist")

// Source reads dataset files. Paths are slash-separated and relative
// to the dataset root.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	// ListFiles returns the regular files directly inside dir, sorted.
	ListFiles(ctx context.Context, dir string) ([]string, error)
	String() string
}

// Comparer is implemented by sources that can list the files changed
// between two revisions.
type Comparer interface {
	ChangedFiles(ctx context.Context, before, after string) ([]string, error)
}

// DirSource reads a dataset from a local directory.
type DirSource struct {
	Root string
}

func (s DirSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotExist)
	}
	return data, err
}

func (s DirSource) ListFiles(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, filepath.FromSlash(dir)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, path.Join(dir, entry.Name()))
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s DirSource) String() string { return s.Root }

// GitHubSource reads a dataset from a repository at a fixed ref.
type GitHubSource struct {
	Client *github.Client
	Repo   github.Repository
}

func (s GitHubSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, err := s.Client.GetFile(ctx, s.Repo, name)
	if github.IsNotFound(err) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotExist)
	}
	return data, err
}

func (s GitHubSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	entries, err := s.Client.ListDirectory(ctx, s.Repo, dir)
	if github.IsNotFound(err) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.Type == "file" {
			names = append(names, entry.Path)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s GitHubSource) ChangedFiles(ctx context.Context, before, after string) ([]string, error) {
	comparison, err := s.Client.Compare(ctx, s.Repo, before, after)
	if err != nil {
		return nil, err
	}
	return comparison.Paths(), nil
}

func (s GitHubSource) String() string { return "github:" + s.Repo.String() }
