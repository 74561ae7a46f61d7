// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadResponseLimit(t *testing.T) {
	oversized := bytes.Repeat([]byte("x"), int(MaxResponseSize)+10)
	data, err := ReadResponse(bytes.NewReader(oversized))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if int64(len(data)) != MaxResponseSize {
		t.Errorf("read %d bytes, want %d", len(data), MaxResponseSize)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		body  string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer body", 8, "a longer..."},
		{"ab€", 3, "ab..."},
	}
	for _, test := range tests {
		if got := Truncate([]byte(test.body), test.limit); got != test.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", test.body, test.limit, got, test.want)
		}
	}
	if got := Truncate([]byte(strings.Repeat("é", 4)), 3); got != "é..." {
		t.Errorf("multi-byte cut = %q", got)
	}
}
