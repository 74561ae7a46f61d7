// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset loads the reference dataset from a local directory
// or a GitHub repository and turns change sets into partial updates.
//
// A dataset is a directory tree with a fixed layout: card tables under
// cards/, constants in yard/constants.json, banlists under banlists/,
// and a handful of top-level files. Each refdata field comes from one
// file or one directory of files. Loader
// reads whole fields: a change set touching any file of a field
// reloads that field, and a field whose content digest is unchanged is
// left out of the update entirely.
//
// Watcher turns filesystem events under a local dataset into change
// sets, so local edits travel the same path as webhook pushes.
package dataset
