// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client library for the Ideaforge API.
//
// Ideaforge is an AI-assisted brainstorming service. A session walks through
// a loop of steps drawn on a canvas: context input, schema editing, idea
// generation, ranking and schema refinement. This client gives typed access
// to every step of that loop, the canvas, the chat assistant and the event
// log.
//
// # Getting Started
//
// Create a client pointing to your Ideaforge server. Session and chat
// endpoints are scoped to a user, sent in the X-User-ID header:
//
//	c := client.New("http://localhost:8420", client.WithUser("alice"))
//
// The client provides access to different API resources through sub-clients:
//
//	// Start a session
//	view, err := c.Sessions.Create(ctx, client.ContextInput{
//	    Context: "Weekend side projects",
//	    Purpose: "Pick one to build",
//	})
//
//	// Confirm the generated schema and generate ideas
//	view, err = c.Sessions.ConfirmSchema(ctx, view.Session.ID, view.Schema)
//	view, err = c.Sessions.GenerateIdeas(ctx, view.Session.ID)
//
//	// Ask the assistant
//	reply, err := c.Chat.Send(ctx, []client.Message{{Role: "user", Content: "Hi"}})
//
// # API Versioning
//
// Ideaforge uses date-based API versioning. By default, the client uses the
// latest API version. You can pin to a specific version for stability:
//
//	c := client.New("http://localhost:8420", client.WithVersion("2026-10-19"))
//
// The version is sent via the Ideaforge-Version HTTP header on each request.
//
// # Error Handling
//
// API errors are returned as *APIError values, which include an error code
// and message:
//
//	_, err := c.Sessions.Get(ctx, "unknown")
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == client.CodeNotFound {
//	    // ...
//	}
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
)

// Client is an Ideaforge API client.
//
// The Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	version    string
	user       string
	httpClient *http.Client

	// Sessions drives the brainstorming workflow of a session.
	Sessions *SessionClient

	// Canvas reads and arranges the canvas of a session.
	Canvas *CanvasClient

	// Chat talks to the brainstorming assistant.
	Chat *ChatClient

	// Events provides access to the event log.
	Events *EventClient

	// Functions calls the stateless chat-completion function.
	Functions *FunctionClient
}

// Option configures a [Client].
type Option func(*Client)

// New creates a new Ideaforge API client with the given base URL and options.
//
// By default, the client uses the latest API version ([LatestVersion]) and a
// 120-second HTTP timeout, since idea generation waits on a model.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: LatestVersion,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Sessions = &SessionClient{c: c}
	c.Canvas = &CanvasClient{c: c}
	c.Chat = &ChatClient{c: c}
	c.Events = &EventClient{c: c}
	c.Functions = &FunctionClient{c: c}

	return c
}

// WithVersion sets the API version to use for all requests.
func WithVersion(v string) Option {
	return func(c *Client) {
		c.version = v
	}
}

// WithUser sets the user the requests act for.
func WithUser(id string) Option {
	return func(c *Client) {
		c.user = id
	}
}

// WithHTTPClient sets a custom HTTP client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout for all requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Version returns the API version being used.
func (c *Client) Version() string {
	return c.version
}

// User returns the user the client acts for.
func (c *Client) User() string {
	return c.user
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health reports the server status and version.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getInto(ctx, "/api/v1/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// apiResponse is the standard API response envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// Error codes returned by the API.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeBadRequest   = "BAD_REQUEST"
	CodeConflict     = "CONFLICT"
	CodeGateway      = "GATEWAY_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError represents an error response from the Ideaforge API.
//
// Validation failures carry the offending fields in Details["fields"].
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int `json:"-"`

	// Code is a machine-readable error code (see the Code constants).
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Details contains additional error information, if available.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// getInto performs a GET request and decodes the data into v.
func (c *Client) getInto(ctx context.Context, path string, v interface{}) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(data, v)
}

// sendInto performs a request with an optional JSON body and decodes the
// data into v.
func (c *Client) sendInto(ctx context.Context, method, path string, body, v interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	data, err := c.do(ctx, method, path, r)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return decode(data, v)
}

func decode(data json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// newRequest builds a request carrying the version and user headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(VersionHeader, c.version)
	if c.user != "" {
		req.Header.Set(UserHeader, c.user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do performs an HTTP request and parses the response envelope.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp)
}

// parseResponse reads and parses an API response.
func (c *Client) parseResponse(resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
			}
		}
		return respBody, nil
	}

	if apiResp.Error != nil {
		apiResp.Error.Status = resp.StatusCode
		return nil, apiResp.Error
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
	}

	return apiResp.Data, nil
}
