// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package chat implements the ideation assistant: a free-form conversation
// with the model, throttled per user and kept in the chat history table.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wingedpig/ideaforge/internal/events"
	"github.com/wingedpig/ideaforge/internal/gateway"
	"github.com/wingedpig/ideaforge/internal/prompts"
	"github.com/wingedpig/ideaforge/internal/store"
)

var (
	// ErrTooSoon is returned when a user submits again before the debounce
	// interval has passed.
	ErrTooSoon = errors.New("message sent too soon after the previous one")

	// ErrNoMessage is returned when the conversation does not end with a
	// user message.
	ErrNoMessage = errors.New("conversation must end with a user message")
)

// Defaults.
const (
	DefaultDebounce   = time.Second
	DefaultMaxHistory = 50
)

// Completer sends a conversation to the model.
type Completer interface {
	Chat(ctx context.Context, req gateway.Request) (*gateway.Completion, error)
}

// Renderer turns a named prompt template into a request.
type Renderer interface {
	Render(name string, data map[string]any) (gateway.Request, error)
}

// History stores chat exchanges.
type History interface {
	AppendChat(ctx context.Context, rec store.ChatRecord) (string, error)
	ListChat(ctx context.Context, userID string, limit int) ([]store.ChatRecord, error)
}

// Config configures an Assistant.
type Config struct {
	Completer  Completer
	Prompts    Renderer
	History    History
	Events     events.Publisher
	Logger     *zap.Logger
	Debounce   time.Duration
	MaxHistory int

	// Now is the clock used by the per-user limiter.
	Now func() time.Time
}

// Assistant answers chat messages.
type Assistant struct {
	completer  Completer
	prompts    Renderer
	history    History
	events     events.Publisher
	logger     *zap.Logger
	debounce   time.Duration
	maxHistory int
	now        func() time.Time

	mu       sync.Mutex
	limiters map[string]*userLimiter
}

type userLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// Reply is the assistant's answer to one submission.
type Reply struct {
	ID        string          `json:"id,omitempty"`
	Message   gateway.Message `json:"message"`
	Model     string          `json:"model,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// New creates an assistant.
func New(cfg Config) *Assistant {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Events == nil {
		cfg.Events = events.Nop{}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Assistant{
		completer:  cfg.Completer,
		prompts:    cfg.Prompts,
		history:    cfg.History,
		events:     cfg.Events,
		logger:     cfg.Logger.Named("chat"),
		debounce:   cfg.Debounce,
		maxHistory: cfg.MaxHistory,
		now:        cfg.Now,
		limiters:   make(map[string]*userLimiter),
	}
}

// allow reports whether userID may submit now.
func (a *Assistant) allow(userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	l, ok := a.limiters[userID]
	if !ok {
		l = &userLimiter{limiter: rate.NewLimiter(rate.Every(a.debounce), 1)}
		a.limiters[userID] = l
	}
	l.last = now
	return l.limiter.AllowN(now, 1)
}

// Prune drops the limiters of users who have not submitted within the
// debounce interval and returns how many were dropped. Such a limiter has
// refilled, so a new one behaves the same.
func (a *Assistant) Prune() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().Add(-a.debounce)
	pruned := 0
	for userID, l := range a.limiters {
		if l.last.Before(cutoff) {
			delete(a.limiters, userID)
			pruned++
		}
	}
	return pruned
}

// Send answers the last user message of messages. Earlier messages are sent
// as conversation history, keeping the most recent max history messages.
// The full conversation is stored.
func (a *Assistant) Send(ctx context.Context, userID string, messages []gateway.Message) (*Reply, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessage
	}
	last := messages[len(messages)-1]
	if last.Role != gateway.RoleUser || strings.TrimSpace(last.Content) == "" {
		return nil, ErrNoMessage
	}
	for i, m := range messages {
		if m.Role != gateway.RoleUser && m.Role != gateway.RoleAssistant {
			return nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
	}

	if !a.allow(userID) {
		return nil, ErrTooSoon
	}

	req, err := a.prompts.Render(prompts.ChatAssistant, nil)
	if err != nil {
		return nil, err
	}
	req.History = messages
	if len(req.History) > a.maxHistory {
		req.History = req.History[len(req.History)-a.maxHistory:]
	}

	completion, err := a.completer.Chat(ctx, req)
	if err != nil {
		a.logger.Error("chat failed", zap.String("user", userID), zap.Error(err))
		return nil, fmt.Errorf("chat: %w", err)
	}

	reply := &Reply{
		Message:   gateway.Message{Role: gateway.RoleAssistant, Content: strings.TrimSpace(completion.Content)},
		Model:     completion.Model,
		CreatedAt: a.now(),
	}

	data, err := json.Marshal(messages)
	if err == nil {
		reply.ID, err = a.history.AppendChat(ctx, store.ChatRecord{
			UserID:   userID,
			Messages: data,
			Response: reply.Message.Content,
		})
	}
	if err != nil {
		a.logger.Warn("chat history not saved", zap.String("user", userID), zap.Error(err))
	}

	a.events.Publish(ctx, events.Event{
		Type:    events.ChatReplied,
		User:    userID,
		Payload: map[string]any{"id": reply.ID, "messages": len(messages)},
	})
	return reply, nil
}

// History returns the user's most recent exchanges, oldest first.
func (a *Assistant) History(ctx context.Context, userID string) ([]store.ChatRecord, error) {
	return a.history.ListChat(ctx, userID, a.maxHistory)
}
