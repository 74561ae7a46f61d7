// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"time"
)

// Matrix error codes the bot reacts to.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
)

// MatrixError is an error body returned by the homeserver.
//
//	if IsMatrixError(err, ErrCodeForbidden) { ... }
type MatrixError struct {
	Code         string `json:"errcode"`
	Message      string `json:"error"`
	RetryAfterMS int64  `json:"retry_after_ms,omitempty"`
	StatusCode   int    `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// RetryAfter is the delay the homeserver asked for, or one second
// when it named none.
func (e *MatrixError) RetryAfter() time.Duration {
	if e.RetryAfterMS <= 0 {
		return time.Second
	}
	return time.Duration(e.RetryAfterMS) * time.Millisecond
}

// IsMatrixError reports whether err wraps a *MatrixError with code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	return errors.As(err, &matrixErr) && matrixErr.Code == code
}
