// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tcgref/tcgref/lib/clock"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/messaging"
)

// Messenger sends chat messages. messaging.Session satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error)
}

// RouterConfig configures a Router.
type RouterConfig struct {
	Messenger Messenger
	// OperatorRoom receives developer messages. Zero disables
	// operator delivery (messages are still logged).
	OperatorRoom ref.RoomID
	// Journal, if set, records every routed report.
	Journal Journal
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Router delivers reports. Safe for concurrent use, although the
// dispatch loop calls it from one goroutine.
type Router struct {
	messenger    Messenger
	operatorRoom ref.RoomID
	journal      Journal
	clock        clock.Clock
	logger       *slog.Logger
}

// NewRouter creates a Router. Panics if Messenger is nil.
func NewRouter(config RouterConfig) *Router {
	if config.Messenger == nil {
		panic("alert.NewRouter: Messenger is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Router{
		messenger:    config.Messenger,
		operatorRoom: config.OperatorRoom,
		journal:      config.Journal,
		clock:        config.Clock,
		logger:       config.Logger.With("component", "alert"),
	}
}

// Route delivers report. The user message goes to origin's room, or to
// report.Reason's room when origin names none (webhook and watch
// failures); it is skipped when neither names a room. The developer
// message goes to the operator room, annotated with origin, whether or
// not the user message was delivered. Route never panics and never
// reports errors to the caller.
func (r *Router) Route(ctx context.Context, report *Report, origin *Origin) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("alert routing panicked", "panic", recovered)
		}
	}()

	if report == nil || report.IsEmpty() {
		r.logger.Warn("handler failed without a message", "origin", origin.Describe())
		return
	}
	recipient := userRecipient(report, origin)
	if origin == nil {
		origin = report.Reason
	}

	entry := Entry{
		Time:      r.clock.Now(),
		Developer: report.Developer,
		User:      report.UserMessage(),
	}
	if origin != nil {
		entry.InvocationID = origin.ID
		entry.Kind = string(origin.Kind)
		entry.Name = origin.Name
	}
	if recipient != nil {
		entry.RoomID = recipient.RoomID.String()
	}

	if entry.User != "" {
		entry.UserDelivered = r.deliverUser(ctx, entry.User, recipient)
	}
	if report.Developer != "" {
		entry.DeveloperDelivered = r.deliverDeveloper(ctx, report.Developer, origin)
	}

	if r.journal != nil {
		if err := r.journal.Record(ctx, entry); err != nil {
			r.logger.Error("recording alert failed", "error", err)
		}
	}
}

// userRecipient picks the request the user message answers.
func userRecipient(report *Report, origin *Origin) *Origin {
	if origin != nil && !origin.RoomID.IsZero() {
		return origin
	}
	if report.Reason != nil && !report.Reason.RoomID.IsZero() {
		return report.Reason
	}
	return origin
}

func (r *Router) deliverUser(ctx context.Context, message string, origin *Origin) bool {
	if origin == nil || origin.RoomID.IsZero() {
		r.logger.Debug("user alert has no destination room", "origin", origin.Describe())
		return false
	}
	content := messaging.NewMarkdownMessage(message).InReply(origin.EventID)
	if _, err := r.messenger.SendMessage(ctx, origin.RoomID, content); err != nil {
		r.logger.Error("delivering user alert failed",
			"room_id", origin.RoomID,
			"origin", origin.Describe(),
			"error", err,
		)
		return false
	}
	return true
}

func (r *Router) deliverDeveloper(ctx context.Context, message string, origin *Origin) bool {
	r.logger.Error("handler failure",
		"origin", origin.Describe(),
		"developer_message", message,
	)
	if r.operatorRoom.IsZero() {
		return false
	}
	content := messaging.NewMarkdownMessage(annotate(message, origin))
	if _, err := r.messenger.SendMessage(ctx, r.operatorRoom, content); err != nil {
		r.logger.Error("delivering developer alert failed",
			"room_id", r.operatorRoom,
			"origin", origin.Describe(),
			"error", err,
		)
		return false
	}
	return true
}

// annotate prefixes message with the request it came from.
func annotate(message string, origin *Origin) string {
	header := "Encountered while processing " + origin.Describe()
	if origin != nil {
		var details []string
		if !origin.Sender.IsZero() {
			details = append(details, "sender `"+origin.Sender.String()+"`")
		}
		if !origin.RoomID.IsZero() {
			details = append(details, "room `"+origin.RoomID.String()+"`")
		}
		if origin.ID != "" {
			details = append(details, "invocation `"+origin.ID+"`")
		}
		for index, detail := range details {
			if index == 0 {
				header += " ("
			} else {
				header += ", "
			}
			header += detail
		}
		if len(details) > 0 {
			header += ")"
		}
	}
	return fmt.Sprintf("%s\n\n```\n%s\n```", header, message)
}
