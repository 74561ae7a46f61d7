// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// APIError is a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode       int
	Message          string
	DocumentationURL string

	backoff time.Duration
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// rateLimited covers both flavours: 429 for secondary limits, and 403
// whose message names the primary limit or abuse detection.
func (err *APIError) rateLimited() bool {
	switch err.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		message := strings.ToLower(err.Message)
		for _, marker := range []string{"rate limit", "abuse detection", "secondary rate"} {
			if strings.Contains(message, marker) {
				return true
			}
		}
	}
	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a rate limit response.
func IsRateLimited(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.rateLimited()
}

// decodeAPIError prefers the JSON message GitHub sends and falls back to
// the raw body.
func decodeAPIError(statusCode int, body []byte) *APIError {
	var wire struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		return &APIError{StatusCode: statusCode, Message: wire.Message, DocumentationURL: wire.DocumentationURL}
	}
	return &APIError{StatusCode: statusCode, Message: string(body)}
}
