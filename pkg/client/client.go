// Package client is a typed HTTP client for the admin API. Every call
// returns a Result instead of an error so callers can render failures
// directly.
package client

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

const (
	defaultBaseURL = "http://localhost:3001"
	defaultTimeout = 30 * time.Second

	// NetworkError is the Error value of a Result whose request never got a response.
	NetworkError = "Network Error"
)

// Result is the outcome of one call.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	Status  int    `json:"-"`
}

// Client calls the admin API with an optional bearer session token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// New builds a client for baseURL, defaulting to the local API.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	c := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// SetToken replaces the bearer token, e.g. after SignIn.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) Result[T] {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Result[T]{Error: "VALIDATION_ERROR", Message: err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Result[T]{Error: NetworkError, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send[T](c, req)
}

func send[T any](c *Client, req *http.Request) Result[T] {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result[T]{Error: NetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()

	var out Result[T]
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	out.Status = resp.StatusCode

	switch {
	case decodeErr != nil && resp.StatusCode >= http.StatusBadRequest:
		return Result[T]{Status: resp.StatusCode, Error: http.StatusText(resp.StatusCode), Message: decodeErr.Error()}
	case decodeErr != nil:
		return Result[T]{Status: resp.StatusCode, Error: "INVALID_RESPONSE", Message: decodeErr.Error()}
	case resp.StatusCode >= http.StatusBadRequest:
		out.Success = false
		if out.Error == "" {
			out.Error = http.StatusText(resp.StatusCode)
		}
	}
	return out
}
