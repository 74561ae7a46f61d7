// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "github.com/tcgref/tcgref/lib/ref"

// Event types and membership values the bot reacts to.
const (
	EventTypeMessage = "m.room.message"
	EventTypeMember  = "m.room.member"

	MembershipInvite = "invite"
)

// HTMLFormat is the formatted_body format Matrix clients render.
const HTMLFormat = "org.matrix.custom.html"

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType       string     `json:"msgtype"`
	Body          string     `json:"body"`
	Format        string     `json:"format,omitempty"`
	FormattedBody string     `json:"formatted_body,omitempty"`
	RelatesTo     *RelatesTo `json:"m.relates_to,omitempty"`
}

// RelatesTo expresses the reply relation.
type RelatesTo struct {
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// NewTextMessage creates a plain m.text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: "m.text", Body: body}
}

// NewNotice creates an m.notice message. Bots conventionally use
// notices for automated output so other bots ignore them.
func NewNotice(body string) MessageContent {
	return MessageContent{MsgType: "m.notice", Body: body}
}

// InReply returns content marked as a reply to eventID. A zero eventID
// returns content unchanged.
func (content MessageContent) InReply(eventID ref.EventID) MessageContent {
	if eventID.IsZero() {
		return content
	}
	content.RelatesTo = &RelatesTo{InReplyTo: &InReplyTo{EventID: eventID}}
	return content
}

// Event is a Matrix event from /sync.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           string         `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// TextBody returns the body of an m.room.message whose msgtype is
// m.text. Notices and media are not commands and return false.
func (e Event) TextBody() (string, bool) {
	if e.Type != EventTypeMessage {
		return "", false
	}
	if msgType, _ := e.Content["msgtype"].(string); msgType != "m.text" {
		return "", false
	}
	body, ok := e.Content["body"].(string)
	return body, ok
}

// Membership returns the membership of an m.room.member event.
func (e Event) Membership() string {
	if e.Type != EventTypeMember {
		return ""
	}
	membership, _ := e.Content["membership"].(string)
	return membership
}

// SyncOptions controls /sync.
type SyncOptions struct {
	Since      string // next_batch from the previous sync; empty for initial
	Timeout    int    // long-poll timeout in milliseconds
	SetTimeout bool   // send Timeout even when zero
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level /sync response.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups per-room sync data by membership. Keys are
// validated through ref.RoomID's TextUnmarshaler.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
}

// JoinedRoom is sync data for a joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// InvitedRoom is sync data for a room the bot is invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// TimelineSection holds timeline events.
type TimelineSection struct {
	Events  []Event `json:"events"`
	Limited bool    `json:"limited"`
}

// StateSection holds state events.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by SendMessage.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}
