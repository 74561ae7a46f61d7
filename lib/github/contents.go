// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Repository identifies a repository and the ref to read from. An
// empty Ref reads the default branch.
type Repository struct {
	Owner string
	Name  string
	Ref   string
}

func (repo Repository) String() string {
	if repo.Ref == "" {
		return repo.Owner + "/" + repo.Name
	}
	return repo.Owner + "/" + repo.Name + "@" + repo.Ref
}

// Entry is one item of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
	// Type is "file", "dir", "symlink", or "submodule".
	Type string `json:"type"`
}

type fileContent struct {
	Entry
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type blob struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

func contentsPath(repo Repository, path string) string {
	escaped := make([]string, 0, strings.Count(path, "/")+1)
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}
	result := repoPath(repo.Owner, repo.Name, "contents", strings.Join(escaped, "/"))
	if repo.Ref != "" {
		result += "?ref=" + url.QueryEscape(repo.Ref)
	}
	return result
}

// GetFile returns the content of the file at path. Files over the
// contents API's inline limit (1 MB) are fetched through the blob API.
func (client *Client) GetFile(ctx context.Context, repo Repository, path string) ([]byte, error) {
	var file fileContent
	if err := client.get(ctx, contentsPath(repo, path), &file); err != nil {
		return nil, fmt.Errorf("getting %s from %s: %w", path, repo, err)
	}
	if file.Type != "file" {
		return nil, fmt.Errorf("getting %s from %s: not a file (type %q)", path, repo, file.Type)
	}
	if file.Encoding == "base64" && file.Content != "" {
		return decodeBase64(file.Content)
	}
	if file.Size == 0 {
		return []byte{}, nil
	}

	var large blob
	if err := client.get(ctx, repoPath(repo.Owner, repo.Name, "git", "blobs", file.SHA), &large); err != nil {
		return nil, fmt.Errorf("getting blob %s for %s: %w", file.SHA, path, err)
	}
	if large.Encoding != "base64" {
		return nil, fmt.Errorf("getting blob %s for %s: unexpected encoding %q", file.SHA, path, large.Encoding)
	}
	return decodeBase64(large.Content)
}

// ListDirectory returns the entries of the directory at path.
func (client *Client) ListDirectory(ctx context.Context, repo Repository, path string) ([]Entry, error) {
	var entries []Entry
	if err := client.get(ctx, contentsPath(repo, path), &entries); err != nil {
		return nil, fmt.Errorf("listing %s in %s: %w", path, repo, err)
	}
	return entries, nil
}

// GitHub wraps base64 content at 60 columns.
func decodeBase64(content string) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, []byte(content))
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(cleaned)))
	n, err := base64.StdEncoding.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("github: decoding base64 content: %w", err)
	}
	return decoded[:n], nil
}
