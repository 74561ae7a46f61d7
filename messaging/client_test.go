// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/secret"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) *DirectSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	token, err := secret.NewFromBytes([]byte("syt_test_token"))
	if err != nil {
		t.Fatalf("secret.NewFromBytes: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@tcgref:example.org"), token)
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestNewClientRequiresHomeserver(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("NewClient accepted an empty homeserver URL")
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotContent MessageContent
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotContent)
		w.Write([]byte(`{"event_id":"$sent"}`))
	})

	roomID := ref.MustParseRoomID("!ops:example.org")
	eventID, err := session.SendMessage(context.Background(), roomID, NewTextMessage("hello"))
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if eventID.String() != "$sent" {
		t.Errorf("event ID = %q, want $sent", eventID)
	}
	if gotAuth != "Bearer syt_test_token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.HasPrefix(gotPath, "/_matrix/client/v3/rooms/%21ops:example.org/send/m.room.message/tcgref-") {
		t.Errorf("path = %q", gotPath)
	}
	if gotContent.Body != "hello" || gotContent.MsgType != "m.text" {
		t.Errorf("content = %+v", gotContent)
	}
}

func TestMatrixErrorReturned(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errcode":"M_FORBIDDEN","error":"not in room"}`))
	})

	_, err := session.SendMessage(context.Background(), ref.MustParseRoomID("!x:example.org"), NewTextMessage("hi"))
	if !IsMatrixError(err, ErrCodeForbidden) {
		t.Fatalf("err = %v, want M_FORBIDDEN", err)
	}
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) || matrixErr.StatusCode != http.StatusForbidden {
		t.Errorf("MatrixError status = %+v", matrixErr)
	}
}

func TestSyncParsesRooms(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since"); got != "s1" {
			t.Errorf("since = %q, want s1", got)
		}
		if got := r.URL.Query().Get("timeout"); got != "30000" {
			t.Errorf("timeout = %q, want 30000", got)
		}
		w.Write([]byte(`{
			"next_batch": "s2",
			"rooms": {
				"join": {"!chat:example.org": {"timeline": {"events": [
					{"event_id": "$1", "type": "m.room.message", "sender": "@alice:example.org",
					 "content": {"msgtype": "m.text", "body": "!help"}}
				]}}},
				"invite": {"!new:example.org": {"invite_state": {"events": [
					{"type": "m.room.member", "state_key": "@tcgref:example.org", "sender": "@bob:example.org",
					 "content": {"membership": "invite"}}
				]}}}
			}
		}`))
	})

	response, err := session.Sync(context.Background(), SyncOptions{Since: "s1", Timeout: 30000, SetTimeout: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if response.NextBatch != "s2" {
		t.Errorf("NextBatch = %q, want s2", response.NextBatch)
	}
	joined := response.Rooms.Join[ref.MustParseRoomID("!chat:example.org")]
	if len(joined.Timeline.Events) != 1 {
		t.Fatalf("joined timeline has %d events, want 1", len(joined.Timeline.Events))
	}
	if body, ok := joined.Timeline.Events[0].TextBody(); !ok || body != "!help" {
		t.Errorf("TextBody = %q, %v", body, ok)
	}
	invited := response.Rooms.Invite[ref.MustParseRoomID("!new:example.org")]
	if len(invited.InviteState.Events) != 1 || invited.InviteState.Events[0].Membership() != MembershipInvite {
		t.Errorf("invite state = %+v", invited.InviteState.Events)
	}
}

func TestJoinRoomAndWhoAmI(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/_matrix/client/v3/join/"):
			w.Write([]byte(`{"room_id":"!new:example.org"}`))
		case r.URL.Path == "/_matrix/client/v3/account/whoami":
			w.Write([]byte(`{"user_id":"@tcgref:example.org"}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	roomID, err := session.JoinRoom(ctx, ref.MustParseRoomID("!new:example.org"))
	if err != nil || roomID.String() != "!new:example.org" {
		t.Errorf("JoinRoom = %v, %v", roomID, err)
	}
	userID, err := session.WhoAmI(ctx)
	if err != nil || userID != session.UserID() {
		t.Errorf("WhoAmI = %v, %v", userID, err)
	}
}

func TestTextBodyIgnoresNotices(t *testing.T) {
	event := Event{Type: EventTypeMessage, Content: map[string]any{"msgtype": "m.notice", "body": "!help"}}
	if _, ok := event.TextBody(); ok {
		t.Error("notice treated as a text message")
	}
}

func TestSendMessageRetriesRateLimit(t *testing.T) {
	var (
		mu           sync.Mutex
		transactions []string
	)
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		transactions = append(transactions, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		attempt := len(transactions)
		mu.Unlock()
		if attempt == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"errcode":"M_LIMIT_EXCEEDED","error":"slow down","retry_after_ms":10}`))
			return
		}
		w.Write([]byte(`{"event_id":"$sent"}`))
	})

	eventID, err := session.SendMessage(context.Background(), ref.MustParseRoomID("!x:example.org"), NewNotice("hi"))
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if eventID.String() != "$sent" {
		t.Errorf("event ID = %q", eventID)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transactions) != 2 || transactions[0] != transactions[1] {
		t.Errorf("transactions = %v, want one retry with the same ID", transactions)
	}
}

func TestUnstructuredErrorBody(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := session.WhoAmI(context.Background())
	if err == nil {
		t.Fatal("WhoAmI succeeded against a 502")
	}
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		t.Errorf("HTML body parsed as a MatrixError: %+v", matrixErr)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestRetryAfterDefault(t *testing.T) {
	if got := (&MatrixError{}).RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter = %s, want 1s", got)
	}
	if got := (&MatrixError{RetryAfterMS: 250}).RetryAfter(); got != 250*time.Millisecond {
		t.Errorf("RetryAfter = %s, want 250ms", got)
	}
}
