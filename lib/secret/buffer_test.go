// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) succeeded, want error", size)
		}
	}
}

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := []byte("webhook-key")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "webhook-key" {
		t.Errorf("String() = %q, want %q", got, "webhook-key")
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source[%d] = %d after copy, want 0", index, value)
		}
	}
}

func TestCloseIsIdempotentAndReadPanics(t *testing.T) {
	buffer, err := NewFromBytes([]byte("token"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Bytes() on closed buffer did not panic")
		}
	}()
	buffer.Bytes()
}

func TestReadFileTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  syt_abc123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	buffer, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "syt_abc123" {
		t.Errorf("ReadFile = %q, want %q", got, "syt_abc123")
	}
}

func TestReadFileRejectsBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("\n\t \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("ReadFile succeeded on a blank file")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("ReadFile succeeded on a missing file")
	}
}
