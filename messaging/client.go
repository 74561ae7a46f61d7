// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tcgref/tcgref/lib/netutil"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/secret"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// HomeserverURL is the homeserver base URL, for example
	// "https://matrix.example.org". A trailing slash is ignored.
	HomeserverURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one homeserver. It carries no credentials; sessions
// created from it do.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}
	if _, err := url.Parse(config.HomeserverURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		// Paths are appended as strings so escaped room IDs survive.
		baseURL:    strings.TrimRight(config.HomeserverURL, "/"),
		httpClient: config.HTTPClient,
		logger:     config.Logger.With("component", "matrix"),
	}, nil
}

// CloseIdleConnections drops pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// SessionFromToken creates a session for userID. The session owns
// accessToken from here on and closes it on Close. The token is not
// checked; call WhoAmI for that.
func (c *Client) SessionFromToken(userID ref.UserID, accessToken *secret.Buffer) (*DirectSession, error) {
	if accessToken == nil {
		return nil, fmt.Errorf("messaging: access token is required")
	}
	return &DirectSession{
		client:      c,
		accessToken: accessToken,
		userID:      userID,
	}, nil
}

// call is one client-server API request.
type call struct {
	method string
	path   string
	query  url.Values
	token  *secret.Buffer
	// body is sent as JSON when non-nil.
	body any
	// result receives the decoded response when non-nil.
	result any
}

// do sends request and decodes a 2xx response into request.result.
// Other statuses return a *MatrixError when the body carries one.
func (c *Client) do(ctx context.Context, request call) error {
	target := c.baseURL + request.path
	if len(request.query) > 0 {
		target += "?" + request.query.Encode()
	}

	var body io.Reader
	if request.body != nil {
		encoded, err := json.Marshal(request.body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", request.path, err)
		}
		body = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.method, target, body)
	if err != nil {
		return err
	}
	if body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if request.token != nil {
		httpRequest.Header.Set("Authorization", "Bearer "+request.token.String())
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return fmt.Errorf("%s %s: %w", request.method, request.path, err)
	}
	defer response.Body.Close()

	payload, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", request.path, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		matrixErr := &MatrixError{StatusCode: response.StatusCode}
		if json.Unmarshal(payload, matrixErr) != nil || matrixErr.Code == "" {
			return fmt.Errorf("%s %s: unexpected status %d: %s",
				request.method, request.path, response.StatusCode, netutil.Truncate(payload, 256))
		}
		return matrixErr
	}

	if request.result == nil {
		return nil
	}
	if err := json.Unmarshal(payload, request.result); err != nil {
		return fmt.Errorf("decoding %s response: %w", request.path, err)
	}
	return nil
}
