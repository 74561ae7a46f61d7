// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"errors"
	"fmt"

	"github.com/tcgref/tcgref/lib/ref"
)

// DefaultUserMessage is shown to the user when a failure carries a
// developer message but no explicit user message.
const DefaultUserMessage = "An error was encountered while processing your command. This incident has been reported."

// Kind classifies what triggered a handler.
type Kind string

const (
	KindCommand Kind = "command"
	KindEvent   Kind = "event"
	KindWebhook Kind = "webhook"
	KindWatch   Kind = "watch"
)

// Origin describes the request a handler ran for.
type Origin struct {
	// ID is the invocation id assigned by the dispatch loop.
	ID   string
	Kind Kind
	// Name is the command name, event kind, or repository.
	Name string

	RoomID  ref.RoomID
	EventID ref.EventID
	Sender  ref.UserID
}

// Describe returns "<kind>: <name>".
func (o *Origin) Describe() string {
	if o == nil {
		return "unknown request"
	}
	if o.Name == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Name)
}

// Report is a handler failure. Each part is optional. Report
// implements error so handlers can return it through ordinary error
// paths and have it recovered by FromError.
type Report struct {
	// Developer is the technical description for operators.
	Developer string
	// User is shown to the requesting user.
	User string
	// Reason is the request that failed, when the handler knows it
	// better than the dispatcher does.
	Reason *Origin
}

// Developerf builds a developer-only report.
func Developerf(format string, args ...any) *Report {
	return &Report{Developer: fmt.Sprintf(format, args...)}
}

// Userf builds a user-only report: a normal refusal, not an incident.
func Userf(format string, args ...any) *Report {
	return &Report{User: fmt.Sprintf(format, args...)}
}

func (r *Report) Error() string {
	switch {
	case r.Developer != "":
		return r.Developer
	case r.User != "":
		return r.User
	default:
		return "unspecified failure"
	}
}

// UserMessage returns the message for the requesting user: the
// explicit one, DefaultUserMessage when only a developer message
// exists, or "" when there is nothing to say.
func (r *Report) UserMessage() string {
	if r.User != "" {
		return r.User
	}
	if r.Developer != "" {
		return DefaultUserMessage
	}
	return ""
}

// IsEmpty reports whether the report carries no message at all.
func (r *Report) IsEmpty() bool {
	return r.Developer == "" && r.User == ""
}

// FromError returns the Report in err's chain, or wraps any other error
// as a developer-only report. Nil stays nil.
func FromError(err error) *Report {
	if err == nil {
		return nil
	}
	var report *Report
	if errors.As(err, &report) {
		return report
	}
	return &Report{Developer: err.Error()}
}
