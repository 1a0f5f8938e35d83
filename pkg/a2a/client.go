// Copyright 2025 Agentdeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ============================================================================
// A2A CLIENT - HTTP+JSON Transport (Spec Section 3.2.3 REST mapping)
// ============================================================================

// HTTPError is a non-success response from the peer.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: server returned %d", e.Method, e.Path, e.StatusCode)
}

// Client talks to one A2A peer: either an agent's HTTP+JSON endpoint or a
// same-origin proxy in front of it. The bearer token is optional; when the
// proxy attaches real authorization, clients hold none.
type Client struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
	// streamClient has no overall timeout; streams are bounded only by
	// their context.
	streamClient *http.Client
}

// ClientConfig contains configuration for the A2A client.
type ClientConfig struct {
	BaseURL string
	Bearer  string
	Timeout time.Duration
}

// NewClient creates an A2A protocol client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		bearer:       cfg.Bearer,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

// BaseURL returns the configured endpoint base.
func (c *Client) BaseURL() string { return c.baseURL }

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	c.streamClient.CloseIdleConnections()
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, stream bool) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	return req, nil
}

func checkStatus(resp *http.Response, method, path string) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	req, err := c.newRequest(ctx, method, path, body, false)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, method, path); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ============================================================================
// TASK OPERATIONS (Spec Sections 7.3-7.4)
// ============================================================================

// ListTasks fetches all tasks known to the peer.
// GET /v1/tasks
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches the current snapshot of one task.
// GET /v1/tasks/{id}
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	path := "/v1/tasks/" + url.PathEscape(taskID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask requests cancellation and returns the resulting snapshot.
// POST /v1/tasks/{id}:cancel
func (c *Client) CancelTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	path := "/v1/tasks/" + url.PathEscape(taskID) + ":cancel"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ============================================================================
// MESSAGE SENDING (Spec Section 7.1)
// ============================================================================

// SendMessage posts a message and returns the single JSON result: either a
// complete *Task snapshot or a standalone *Message, decoded by kind.
// POST /v1/message:send
func (c *Client) SendMessage(ctx context.Context, params SendParams) (Event, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/message:send", params, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.MethodPost, "/v1/message:send"); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	event := DecodeEvent(raw)
	switch event.(type) {
	case *Task, *Message:
		return event, nil
	}
	return nil, fmt.Errorf("message:send returned neither task nor message")
}

// ============================================================================
// STREAMING (Server-Sent Events - Spec Section 7.2)
// ============================================================================

// StreamMessage posts a message and returns a live event feed. The channel
// closes on a final status update, stream end, or context cancellation.
// POST /v1/message:stream
func (c *Client) StreamMessage(ctx context.Context, params SendParams) (<-chan Event, error) {
	return c.openStream(ctx, "/v1/message:stream", params)
}

// Resubscribe resumes the live event feed of an existing task.
// POST /v1/tasks/{id}:subscribe
func (c *Client) Resubscribe(ctx context.Context, taskID string) (<-chan Event, error) {
	path := "/v1/tasks/" + url.PathEscape(taskID) + ":subscribe"
	return c.openStream(ctx, path, nil)
}

func (c *Client) openStream(ctx context.Context, path string, body any) (<-chan Event, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}

	if err := checkStatus(resp, http.MethodPost, path); err != nil {
		resp.Body.Close()
		return nil, err
	}

	events := make(chan Event, 10)
	go readEventStream(ctx, resp.Body, events)
	return events, nil
}

// ============================================================================
// AGENT DISCOVERY (Spec Section 5)
// ============================================================================

// FetchAgentCard retrieves an agent card from its absolute URL, optionally
// with an Authorization header value.
func FetchAgentCard(ctx context.Context, httpClient *http.Client, cardURL, authorization string) (*AgentCard, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			Path:       cardURL,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &card, nil
}
