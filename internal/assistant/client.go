// Package assistant talks to the companion AI service over HTTP. The
// assistant is optional infrastructure: when it is down, every call
// degrades to a canned reply or a no-op instead of failing the request
// that triggered it.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"
)

// ChatReply is the assistant's answer to one chat message.
type ChatReply struct {
	Response   string            `json:"response"`
	Confidence float64           `json:"confidence"`
	Sources    []json.RawMessage `json:"sources"`
}

// SearchResult holds semantic search hits, passed through untouched.
type SearchResult struct {
	Query   string            `json:"query"`
	Results []json.RawMessage `json:"results"`
}

// Notification is an event pushed to the assistant's notification engine.
type Notification struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
	Channels   []string `json:"channels,omitempty"`
	Priority   string   `json:"priority,omitempty"`
}

// Client is what the service layer depends on. Tests substitute a fake.
type Client interface {
	Available() bool
	Chat(ctx context.Context, message, userID, sessionID string) *ChatReply
	Search(ctx context.Context, query string, topK int) *SearchResult
	Notify(ctx context.Context, n Notification)
	Reindex(ctx context.Context, dataType, dataID string)
}

// HTTPClient implements Client against the assistant's REST API.
type HTTPClient struct {
	baseURL       string
	client        *http.Client
	logger        *slog.Logger
	callTimeout   time.Duration
	healthTimeout time.Duration
	available     atomic.Bool
}

// New builds a client for the assistant at baseURL. Call CheckAvailability
// before use; until a probe succeeds every method degrades.
func New(baseURL string, callTimeout, healthTimeout time.Duration, logger *slog.Logger) *HTTPClient {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL:       baseURL,
		client:        &http.Client{},
		logger:        logger,
		callTimeout:   callTimeout,
		healthTimeout: healthTimeout,
	}
}

// Available reports the result of the last health probe.
func (c *HTTPClient) Available() bool {
	return c.available.Load()
}

// CheckAvailability probes GET /health and records whether the assistant
// answered healthy. Safe to call periodically.
func (c *HTTPClient) CheckAvailability(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var body struct {
		Status string `json:"status"`
	}
	err := c.getJSON(ctx, "/health", nil, &body)
	up := err == nil && body.Status == "healthy"
	c.available.Store(up)

	if up {
		c.logger.Info("assistant is available", "url", c.baseURL)
	} else {
		c.logger.Info("assistant is not available", "url", c.baseURL, "error", err)
	}
	return up
}

// WatchAvailability re-probes the assistant every interval until ctx is
// cancelled, so an assistant that goes down or comes back is noticed
// without a restart. Run it in its own goroutine.
func (c *HTTPClient) WatchAvailability(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAvailability(ctx)
		}
	}
}

// Chat sends one message. When the assistant is down or errors, the reply
// is a canned fallback rather than an error — chat must never 500.
func (c *HTTPClient) Chat(ctx context.Context, message, userID, sessionID string) *ChatReply {
	if !c.Available() {
		return unavailableReply()
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	payload := map[string]any{
		"message": message,
		"user_id": userID,
	}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}

	var reply ChatReply
	if err := c.postJSON(ctx, "/chat", payload, &reply); err != nil {
		c.logger.Error("assistant chat failed", "error", err)
		return troubleReply()
	}
	return &reply
}

// Search runs a semantic search, returning empty results on any failure.
func (c *HTTPClient) Search(ctx context.Context, query string, topK int) *SearchResult {
	empty := &SearchResult{Query: query, Results: []json.RawMessage{}}
	if !c.Available() {
		return empty
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", query)
	params.Set("top_k", strconv.Itoa(topK))

	var result SearchResult
	if err := c.getJSON(ctx, "/search", params, &result); err != nil {
		c.logger.Error("assistant search failed", "error", err)
		return empty
	}
	if result.Results == nil {
		result.Results = []json.RawMessage{}
	}
	return &result
}

// Notify pushes an event to the assistant's notification engine. Failures
// are logged and dropped.
func (c *HTTPClient) Notify(ctx context.Context, n Notification) {
	if !c.Available() {
		c.logger.Debug("assistant not available, notification dropped", "type", n.Type)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	if err := c.postJSON(ctx, "/notifications", n, nil); err != nil {
		c.logger.Error("assistant notification failed", "type", n.Type, "error", err)
	}
}

// Reindex asks the assistant to refresh its index for one record.
// Best-effort: a stale index is acceptable, a failed request is not.
func (c *HTTPClient) Reindex(ctx context.Context, dataType, dataID string) {
	if !c.Available() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	payload := map[string]any{"data_type": dataType}
	if dataID != "" {
		payload["data_id"] = dataID
	}
	if err := c.postJSON(ctx, "/index/reindex", payload, nil); err != nil {
		c.logger.Error("assistant reindex failed", "data_type", dataType, "error", err)
	}
}

func unavailableReply() *ChatReply {
	return &ChatReply{
		Response: "I'm currently unavailable. Please try again later or contact support.",
		Sources:  []json.RawMessage{},
	}
}

func troubleReply() *ChatReply {
	return &ChatReply{
		Response: "I'm having trouble processing your request right now. Please try again later.",
		Sources:  []json.RawMessage{},
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("assistant: building request: %w", err)
	}
	return c.do(req, out)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("assistant: encoding payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("assistant: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("assistant: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("assistant: %s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("assistant: decoding response: %w", err)
	}
	return nil
}
