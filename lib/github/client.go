// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tcgref/tcgref/lib/clock"
	"github.com/tcgref/tcgref/lib/netutil"
	"github.com/tcgref/tcgref/lib/secret"
)

// githubAPIVersion pins the REST API version header.
const githubAPIVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// Token is a personal access token or fine-grained token. The
	// client reads it on every request and never copies it to the
	// heap; the caller keeps ownership and closes it after the client
	// is done.
	Token *secret.Buffer

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a typed GitHub REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      *secret.Buffer
	quota      *quota
	cache      *revalidator
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a client. Returns an error for a non-HTTPS base
// URL or a missing token.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if config.Token == nil || config.Token.Len() == 0 {
		return nil, fmt.Errorf("github: no token configured")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      config.Token,
		quota:      newQuota(clk),
		cache:      newRevalidator(),
		clock:      clk,
		logger:     logger.With("component", "github"),
	}, nil
}

// get performs an authenticated GET and decodes the JSON response into
// result. A rate-limited answer is retried once after the advertised
// backoff.
func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.fetch(ctx, path)
	if apiError, ok := err.(*APIError); ok && apiError.rateLimited() && apiError.backoff > 0 {
		client.logger.Info("rate limited, backing off", "duration", apiError.backoff, "path", path)
		if err := sleep(ctx, client.clock, apiError.backoff); err != nil {
			return err
		}
		body, err = client.fetch(ctx, path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding %s: %w", path, err)
	}
	return nil
}

// fetch issues one GET for path and returns the body, the cached body
// for a 304, or an *APIError for any other non-2xx status.
func (client *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	if err := client.quota.pause(ctx); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+client.token.String())
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	client.cache.prepare(request, path)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: GET %s: %w", path, err)
	}
	defer response.Body.Close()
	client.quota.observe(response.Header)

	if response.StatusCode == http.StatusNotModified {
		if body, ok := client.cache.notModified(path); ok {
			return body, nil
		}
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("github: reading response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		apiError := decodeAPIError(response.StatusCode, body)
		apiError.backoff = client.quota.backoff(response.Header)
		return nil, apiError
	}
	client.cache.remember(path, response.Header, body)
	return body, nil
}

// repoPath builds "/repos/{owner}/{repo}" followed by the escaped
// segments.
func repoPath(owner, repo string, segments ...string) string {
	var builder strings.Builder
	builder.WriteString("/repos/")
	builder.WriteString(url.PathEscape(owner))
	builder.WriteByte('/')
	builder.WriteString(url.PathEscape(repo))
	for _, segment := range segments {
		builder.WriteByte('/')
		builder.WriteString(segment)
	}
	return builder.String()
}
