// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tcgref/tcgref/lib/clock"
)

// quota follows the primary rate limit as reported on every response.
// Once the remaining budget is spent, requests pause until the reset.
type quota struct {
	clock clock.Clock

	mu        sync.Mutex
	exhausted bool
	resetAt   time.Time
}

func newQuota(clk clock.Clock) *quota {
	return &quota{clock: clk}
}

func (q *quota) observe(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	resetAt, ok := resetTime(header)
	if !ok {
		return
	}
	q.mu.Lock()
	q.exhausted = remaining <= 0
	q.resetAt = resetAt
	q.mu.Unlock()
}

// pause blocks until the budget resets. It fails only when ctx ends.
func (q *quota) pause(ctx context.Context) error {
	q.mu.Lock()
	var delay time.Duration
	if q.exhausted {
		delay = q.resetAt.Sub(q.clock.Now())
	}
	q.mu.Unlock()
	return sleep(ctx, q.clock, delay)
}

// backoff is how long to wait before retrying a rate-limited response.
// Retry-After wins over X-RateLimit-Reset; zero means neither is usable.
func (q *quota) backoff(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if resetAt, ok := resetTime(header); ok {
		return max(resetAt.Sub(q.clock.Now()), 0)
	}
	return 0
}

func resetTime(header http.Header) (time.Time, bool) {
	seconds, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(seconds, 0), true
}

func sleep(ctx context.Context, clk clock.Clock, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-clk.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
