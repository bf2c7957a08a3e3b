// Package inference is the HTTP client for the RoboBrain model server.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single inference call. Vision-language decoding
// is slow, so this is deliberately generous.
const DefaultTimeout = 120 * time.Second

// ChatRequest is one prompt+image+task sent to the model server.
type ChatRequest struct {
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	Image          string `json:"image,omitempty"`
	Task           string `json:"task"`
	EnableThinking bool   `json:"enable_thinking"`
}

// ChatResponse is the model server's reply.
type ChatResponse struct {
	Answer      string `json:"answer"`
	Thinking    string `json:"thinking,omitempty"`
	OutputImage string `json:"output_image,omitempty"`
	Task        string `json:"task,omitempty"`
	TaskSource  string `json:"task_source,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Health is the model server's health probe payload.
type Health struct {
	Status         string `json:"status"`
	ModelLoaded    bool   `json:"model_loaded"`
	ActiveSessions int    `json:"active_sessions"`
}

// Client talks to one model server instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the model server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateSession opens a conversation session on the model server and
// returns its ID.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
		Error     string `json:"error,omitempty"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/session", nil, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("model server returned no session id")
	}
	return resp.SessionID, nil
}

// DeleteSession discards a model server session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/session/"+sessionID, nil, nil)
}

// ResetSession clears a session's conversation history server-side.
func (c *Client) ResetSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/api/session/"+sessionID+"/reset", nil, nil)
}

// Chat runs one inference call. A populated Error field in the response is
// promoted to a Go error so callers handle exactly one failure channel.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("model server: %s", resp.Error)
	}
	return &resp, nil
}

// CheckHealth probes the model server.
func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("model server unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies carry {"error": "..."} when the server got far
		// enough to produce one.
		var serverErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &serverErr) == nil && serverErr.Error != "" {
			return fmt.Errorf("model server: %s (status %d)", serverErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("model server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
