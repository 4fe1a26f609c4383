// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the in-process event bus that carries workflow
// and canvas changes to live subscribers.
package events

import (
	"context"
	"time"
)

// Event is an immutable record of something that happened in a session.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Session   string         `json:"session,omitempty"`
	User      string         `json:"user,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, event Event)

// SubscriptionID identifies a subscription.
type SubscriptionID string

// Filter selects events from history. Zero fields match everything.
type Filter struct {
	Types   []string // patterns, see Match
	Session string
	User    string
	Since   time.Time
	Until   time.Time
	Limit   int // most recent N
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus is the pub/sub system.
type Bus interface {
	Publisher

	// Subscribe registers a handler called synchronously from Publish.
	Subscribe(pattern string, handler Handler) (SubscriptionID, error)

	// SubscribeAsync registers a handler fed from a buffered channel.
	// Events are dropped when the buffer is full.
	SubscribeAsync(pattern string, handler Handler, bufferSize int) (SubscriptionID, error)

	Unsubscribe(id SubscriptionID) error
	History(filter Filter) []Event
	Close() error
}

// Event types.
const (
	SessionStarted   = "session.started"
	SchemaConfirmed  = "schema.confirmed"
	IdeasGenerated   = "ideas.generated"
	RankingUpdated   = "ranking.updated"
	RankingCompleted = "ranking.completed"
	SchemaRefined    = "schema.refined"
	IterationStarted = "iteration.started"

	PanelCreated = "canvas.panel.created"
	PanelMoved   = "canvas.panel.moved"
	CanvasScaled = "canvas.scaled"

	ChatReplied = "chat.replied"

	PromptsReloaded = "prompts.reloaded"
	GatewayFailed   = "gateway.failed"
)
