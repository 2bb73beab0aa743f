// Package client is a typed HTTP client for the pinecone gateway. Each REST
// endpoint gets one method, and error responses are mapped back onto the
// engine's sentinel errors so errors.Is works the same against a remote
// server as against an embedded DB.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/filter"
	"github.com/Kauxtubh/pinecone/internal/version"
)

// DefaultBaseURL matches the gateway's default listen port.
const DefaultBaseURL = "http://localhost:18700"

// Client talks to a pinecone gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a client for the gateway at baseURL. An empty baseURL uses
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health describes the /health response.
type Health struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Indexes       int    `json:"indexes"`
}

// Health reports server liveness and build info.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// TriggerSnapshot asks the server to persist a snapshot. The snapshot runs
// asynchronously; a nil error means it was accepted, not that it finished.
func (c *Client) TriggerSnapshot(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/snapshot", nil, nil)
}

// do performs one JSON round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx gateway response. Unwrap recovers the engine
// sentinel the server mapped onto this status, so callers can keep using
// errors.Is over the wire.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case strings.Contains(e.Message, "dimension mismatch"):
		return pinecone.ErrDimensionMismatch
	case strings.Contains(e.Message, "invalid filter"):
		return filter.ErrInvalidFilter
	case strings.Contains(e.Message, "not ready"):
		return pinecone.ErrIndexNotReady
	}
	switch e.StatusCode {
	case http.StatusNotFound:
		return pinecone.ErrNotFound
	case http.StatusConflict:
		return pinecone.ErrAlreadyExists
	case http.StatusBadRequest:
		return pinecone.ErrInvalidArgument
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
