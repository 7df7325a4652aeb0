// Package api is a typed client for the claude.ai web API, the
// cookie-authenticated surface behind the browser app. It handles retries of
// transient failures, polite request pacing, and the error taxonomy the sync
// engine branches on; everything it returns is an explicit wire record.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the claude.ai web API root.
const DefaultBaseURL = "https://claude.ai/api"

// defaultUserAgent is a realistic browser identity; the CDN in front of
// claude.ai rejects bare clients.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"

// Config configures a Client. Zero fields take defaults; Cookies is required.
type Config struct {
	BaseURL string
	// Cookies are the named cookie values for the claude.ai domain, minimally
	// sessionKey.
	Cookies   map[string]string
	UserAgent string
	Timeout   time.Duration
	// RequestDelay is enforced after every successful call to stay inside a
	// polite rate budget.
	RequestDelay time.Duration
	Retry        Policy
	Logger       *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RequestDelay == 0 {
		c.RequestDelay = 200 * time.Millisecond
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = DefaultPolicy()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client talks to the claude.ai web API. Safe for sequential use; the sync
// engine is single-threaded by design.
type Client struct {
	cfg        Config
	httpClient *http.Client
	header     http.Header
	logger     *slog.Logger
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if len(cfg.Cookies) == 0 {
		return nil, errors.New("failed to create api client: no session cookies")
	}

	header := http.Header{}
	header.Set("User-Agent", cfg.UserAgent)
	header.Set("Accept", "application/json, text/plain, */*")
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Referer", "https://claude.ai/")
	header.Set("Origin", "https://claude.ai")
	header.Set("Cookie", cookieHeader(cfg.Cookies))

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		header:     header,
		logger:     cfg.Logger,
	}, nil
}

// cookieHeader renders cookies as a Cookie header value in stable order.
func cookieHeader(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// Organizations lists the organizations visible to the session.
func (c *Client) Organizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := c.getJSON(ctx, "/organizations", &orgs); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// Projects lists the projects of an organization, metadata only.
func (c *Client) Projects(ctx context.Context, orgID string) ([]ProjectSummary, error) {
	var projects []ProjectSummary
	path := fmt.Sprintf("/organizations/%s/projects", orgID)
	if err := c.getJSON(ctx, path, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Project fetches one full project record, instructions included.
func (c *Client) Project(ctx context.Context, orgID, projectID string) (*Project, error) {
	var project Project
	path := fmt.Sprintf("/organizations/%s/projects/%s", orgID, projectID)
	if err := c.getJSON(ctx, path, &project); err != nil {
		return nil, fmt.Errorf("failed to fetch project %s: %w", projectID, err)
	}
	return &project, nil
}

// ProjectDocs fetches all documents of a project, content included.
func (c *Client) ProjectDocs(ctx context.Context, orgID, projectID string) ([]Document, error) {
	var docs []Document
	path := fmt.Sprintf("/organizations/%s/projects/%s/docs?tree=true", orgID, projectID)
	if err := c.getJSON(ctx, path, &docs); err != nil {
		return nil, fmt.Errorf("failed to fetch docs for project %s: %w", projectID, err)
	}
	return docs, nil
}

// ProjectConversations lists a project's conversations, summaries only.
func (c *Client) ProjectConversations(ctx context.Context, orgID, projectID string) ([]ConversationSummary, error) {
	var convos []ConversationSummary
	path := fmt.Sprintf("/organizations/%s/projects/%s/conversations?tree=true", orgID, projectID)
	if err := c.getJSON(ctx, path, &convos); err != nil {
		return nil, fmt.Errorf("failed to list conversations for project %s: %w", projectID, err)
	}
	return convos, nil
}

// Conversation fetches one full conversation: the current branch's messages
// in order.
func (c *Client) Conversation(ctx context.Context, orgID, conversationID string) (*Conversation, error) {
	var convo Conversation
	path := fmt.Sprintf("/organizations/%s/chat_conversations/%s?rendering_mode=messages&render_all_tools=true",
		orgID, conversationID)
	if err := c.getJSON(ctx, path, &convo); err != nil {
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", conversationID, err)
	}
	return &convo, nil
}

// getJSON performs a GET under the retry policy and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.cfg.BaseURL + path
	return c.cfg.Retry.Do(ctx, func() error {
		return c.getOnce(ctx, url, out)
	})
}

func (c *Client) getOnce(ctx context.Context, url string, out any) error {
	c.logger.Debug("api request", "method", http.MethodGet, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = c.header.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach claude.ai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrSessionExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode >= 400:
		return &StatusError{
			Status:     resp.StatusCode,
			URL:        url,
			Snippet:    snippet(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return &MalformedResponseError{URL: url, Status: resp.StatusCode, Err: errors.New("empty body")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{URL: url, Status: resp.StatusCode, Snippet: snippet(body), Err: err}
	}

	c.pace(ctx)
	return nil
}

// pace enforces the inter-request delay after a successful call.
func (c *Client) pace(ctx context.Context) {
	if c.cfg.RequestDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.RequestDelay):
	}
}

// parseRetryAfter reads a Retry-After header given in seconds; anything else
// yields zero and the normal backoff schedule applies.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
