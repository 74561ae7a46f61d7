// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/secret"
)

// MaxRateLimitWait caps how long SendMessage honors a homeserver's
// retry_after_ms before giving up.
const MaxRateLimitWait = 10 * time.Second

// DirectSession is an authenticated Matrix session holding its access
// token in a secret.Buffer.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	userID      ref.UserID

	transactionCounter atomic.Int64
}

// UserID returns the session's user ID.
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// CloseIdleConnections drops pooled connections.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close zeroes and unmaps the access token. Idempotent.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

func (s *DirectSession) do(ctx context.Context, request call) error {
	request.token = s.accessToken
	return s.client.do(ctx, request)
}

// WhoAmI returns the user the access token belongs to.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	var response WhoAmIResponse
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/_matrix/client/v3/account/whoami",
		result: &response,
	})
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami: %w", err)
	}
	return response.UserID, nil
}

// JoinRoom joins roomID and returns the joined room's ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	var response struct {
		RoomID ref.RoomID `json:"room_id"`
	}
	err := s.do(ctx, call{
		method: http.MethodPost,
		path:   "/_matrix/client/v3/join/" + url.PathEscape(roomID.String()),
		body:   struct{}{},
		result: &response,
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: joining %s: %w", roomID, err)
	}
	return response.RoomID, nil
}

// SendMessage sends an m.room.message. The PUT is idempotent per
// transaction ID, so a rate-limited send is retried once with the same
// ID after the homeserver's requested delay (up to MaxRateLimitWait).
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	request := call{
		method: http.MethodPut,
		path: fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/m.room.message/%s",
			url.PathEscape(roomID.String()),
			url.PathEscape(s.nextTransactionID()),
		),
		body: content,
	}
	var response SendEventResponse
	request.result = &response

	err := s.do(ctx, request)
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) && matrixErr.Code == ErrCodeLimitExceeded {
		wait := min(matrixErr.RetryAfter(), MaxRateLimitWait)
		s.client.logger.Warn("send rate limited, retrying", "room_id", roomID, "wait", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ref.EventID{}, ctx.Err()
		case <-timer.C:
		}
		err = s.do(ctx, request)
	}
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: sending to %s: %w", roomID, err)
	}
	return response.EventID, nil
}

// Sync performs one /sync. Leave options.Since empty for the initial
// sync; set options.Timeout (milliseconds) to long-poll.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	var response SyncResponse
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/_matrix/client/v3/sync",
		query:  query,
		result: &response,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: sync: %w", err)
	}
	return &response, nil
}

// nextTransactionID returns "tcgref-<unix ms>-<counter>", unique across
// restarts.
func (s *DirectSession) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("tcgref-%d-%d", time.Now().UnixMilli(), counter)
}
