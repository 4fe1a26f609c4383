// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gateway calls a remote chat-completion model and turns its replies
// into validated JSON, retrying a fixed number of times on failure.
package gateway

import (
	"context"
	"errors"
)

// Defaults applied to requests that leave fields unset.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 1.0
	DefaultMaxAttempts = 3
)

var (
	// ErrExhausted is returned when every attempt failed.
	ErrExhausted = errors.New("failed to get valid response")

	// ErrEmptyResponse is returned when the model replied with no content.
	ErrEmptyResponse = errors.New("empty response")

	// ErrInvalidJSON is returned when the reply could not be parsed as JSON.
	ErrInvalidJSON = errors.New("invalid JSON in response")
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	SystemPrompt string    `json:"systemPrompt"`
	UserPrompt   string    `json:"userPrompt"`
	Model        string    `json:"model,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"` // nil uses DefaultTemperature
	ExpectArray  bool      `json:"expectArray,omitempty"`
	MaxTokens    int       `json:"maxTokens,omitempty"`
	History      []Message `json:"history,omitempty"`

	// JSONMode asks the provider for a JSON-only reply when it supports one.
	JSONMode bool `json:"-"`
}

// Temperature returns a pointer to t for use in Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// temperature returns the requested sampling temperature, or the default
// when none was set.
func (r Request) temperature() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Messages flattens the request into an ordered conversation.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, len(r.History)+2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: r.SystemPrompt})
	}
	msgs = append(msgs, r.History...)
	if r.UserPrompt != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: r.UserPrompt})
	}
	return msgs
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is a raw model reply.
type Completion struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Provider performs a single completion call against a model backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Name() string
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the gateway stops retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
