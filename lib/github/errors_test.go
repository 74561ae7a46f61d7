// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "Not Found"}
	if got, want := err.Error(), "github: HTTP 404: Not Found"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&APIError{StatusCode: 404, Message: "Not Found"}) {
		t.Error("expected IsNotFound for 404")
	}
	if IsNotFound(&APIError{StatusCode: 403, Message: "Forbidden"}) {
		t.Error("unexpected IsNotFound for 403")
	}
	if IsNotFound(fmt.Errorf("network error")) {
		t.Error("unexpected IsNotFound for non-APIError")
	}
	if !IsNotFound(fmt.Errorf("getting file: %w", &APIError{StatusCode: 404})) {
		t.Error("IsNotFound should see through wrapping")
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"429 response", &APIError{StatusCode: 429, Message: "Too Many Requests"}, true},
		{"403 rate limit exceeded", &APIError{StatusCode: 403, Message: "API rate limit exceeded for user"}, true},
		{"403 abuse detection", &APIError{StatusCode: 403, Message: "You have triggered an abuse detection mechanism"}, true},
		{"403 permission denied", &APIError{StatusCode: 403, Message: "Resource not accessible by integration"}, false},
		{"non-APIError", fmt.Errorf("network error"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsRateLimited(test.err); got != test.expected {
				t.Errorf("IsRateLimited = %v, want %v", got, test.expected)
			}
		})
	}
}
