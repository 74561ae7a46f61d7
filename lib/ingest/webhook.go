// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tcgref/tcgref/lib/clock"
	"github.com/tcgref/tcgref/lib/service"
)

// maxWebhookBodySize bounds push payloads. GitHub caps deliveries at
// 25 MB.
const maxWebhookBodySize = 32 << 20

// DeduplicationWindow is how long delivery IDs are remembered.
const DeduplicationWindow = time.Hour

// WebhookHandler receives GitHub webhook deliveries.
type WebhookHandler struct {
	secret []byte
	logger *slog.Logger
	clock  clock.Clock
	onPush func(Push)

	mu         sync.Mutex
	deliveries map[string]time.Time
}

// NewWebhookHandler creates a handler verifying deliveries with
// secret. Panics if secret is empty or onPush is nil.
func NewWebhookHandler(secret []byte, clk clock.Clock, logger *slog.Logger, onPush func(Push)) *WebhookHandler {
	if len(secret) == 0 {
		panic("ingest.WebhookHandler: secret is required")
	}
	if onPush == nil {
		panic("ingest.WebhookHandler: onPush is required")
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		secret:     secret,
		logger:     logger.With("component", "webhook"),
		clock:      clk,
		onPush:     onPush,
		deliveries: make(map[string]time.Time),
	}
}

// ServeHTTP handles one delivery.
func (h *WebhookHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(request.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Error("reading webhook body failed", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}
	if len(body) == 0 {
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	if err := service.VerifyWebhookHMAC(h.secret, body, request.Header.Get(service.SignatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected", "error", err, "remote_addr", request.RemoteAddr)
		http.Error(writer, "", http.StatusUnauthorized)
		return
	}

	eventType := request.Header.Get("X-GitHub-Event")
	deliveryID := request.Header.Get("X-GitHub-Delivery")
	if eventType == "" {
		h.logger.Warn("webhook missing X-GitHub-Event header")
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	if deliveryID != "" && h.isDuplicate(deliveryID) {
		h.logger.Debug("duplicate webhook delivery ignored", "delivery_id", deliveryID)
		// 200 so GitHub stops retrying.
		writer.WriteHeader(http.StatusOK)
		return
	}

	logger := h.logger.With("event_type", eventType, "delivery_id", deliveryID)
	if eventType != "push" {
		logger.Debug("webhook event ignored")
		writer.WriteHeader(http.StatusOK)
		return
	}

	push, err := decodePush(body)
	if err != nil {
		// Retrying the same payload cannot help.
		logger.Error("decoding push payload failed", "error", err)
		writer.WriteHeader(http.StatusOK)
		return
	}
	logger.Info("push received", "ref", push.Ref, "repository", push.FullName, "commits", len(push.Commits))
	h.onPush(push)
	writer.WriteHeader(http.StatusOK)
}

// isDuplicate records deliveryID and reports whether it was already
// seen within the window. Expired entries are pruned on every call.
func (h *WebhookHandler) isDuplicate(deliveryID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	for id, receivedAt := range h.deliveries {
		if now.Sub(receivedAt) > DeduplicationWindow {
			delete(h.deliveries, id)
		}
	}
	if _, exists := h.deliveries[deliveryID]; exists {
		return true
	}
	h.deliveries[deliveryID] = now
	return false
}

type pushPayload struct {
	Ref        string `json:"ref"`
	Before     string `json:"before"`
	After      string `json:"after"`
	CompareURL string `json:"compare"`
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"repository"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
	Commits []struct {
		ID       string   `json:"id"`
		Message  string   `json:"message"`
		Added    []string `json:"added"`
		Modified []string `json:"modified"`
		Removed  []string `json:"removed"`
	} `json:"commits"`
}

func decodePush(body []byte) (Push, error) {
	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Push{}, err
	}
	push := Push{
		Ref:        payload.Ref,
		Before:     payload.Before,
		After:      payload.After,
		CompareURL: payload.CompareURL,
		Repository: payload.Repository.Name,
		FullName:   payload.Repository.FullName,
		Sender:     payload.Sender.Login,
		Commits:    make([]Commit, len(payload.Commits)),
	}
	for index, commit := range payload.Commits {
		push.Commits[index] = Commit{
			ID:       commit.ID,
			Message:  commit.Message,
			Added:    commit.Added,
			Modified: commit.Modified,
			Removed:  commit.Removed,
		}
	}
	return push, nil
}
