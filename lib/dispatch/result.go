// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"

	"github.com/tcgref/tcgref/lib/refdata"
)

// Handler reacts to one trigger. It must not modify snapshot.
type Handler func(ctx context.Context, snapshot *refdata.Context) Result

// Result is the outcome of a handler: exactly one of a failure or a
// success carrying an optional update.
type Result struct {
	err    error
	update *refdata.Update
}

var errNoCause = errors.New("handler failed without an error")

// Failure returns a failed result. err is usually an *alert.Report;
// any other error is treated as developer-only.
func Failure(err error) Result {
	if err == nil {
		err = errNoCause
	}
	return Result{err: err}
}

// Success returns a successful result. A nil update means the handler
// changed nothing.
func Success(update *refdata.Update) Result {
	return Result{update: update}
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool { return r.err != nil }

// Err returns the failure, or nil.
func (r Result) Err() error { return r.err }

// Update returns the update of a successful result, or nil.
func (r Result) Update() *refdata.Update { return r.update }
