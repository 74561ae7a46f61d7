// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadFile reads a secret from path into a Buffer. Surrounding
// whitespace (typically a trailing newline from an editor) is trimmed.
// An empty file is an error: a blank secret is never what the operator
// meant.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret %s: %w", path, err)
	}
	defer Zero(data)
	return FromBytes(data, path)
}

// FromBytes trims data and moves it into a Buffer. name is used only
// in error messages. data is zeroed.
func FromBytes(data []byte, name string) (*Buffer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret %s is empty", name)
	}
	buffer, err := NewFromBytes(trimmed)
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
