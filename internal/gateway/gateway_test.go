// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	content string
	err     error
}

// scriptedProvider returns canned replies in order and records every request.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []reply
	calls   []Request
}

func newScripted(replies ...reply) *scriptedProvider {
	return &scriptedProvider{replies: replies}
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)
	if len(p.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &Completion{Content: r.content, Model: req.Model}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestInvoke_ReturnsThirdAttemptAfterTwoParseFailures(t *testing.T) {
	provider := newScripted(
		reply{content: "Sure! Here are your ideas:"},
		reply{content: `{"purpose": "unterminated`},
		reply{content: `{"purpose":"p","context":"c","criteria":["a"]}`},
		reply{content: "not json"},
		reply{content: "```json\n[1, 2\n```"},
		reply{content: `{"purpose":"p","context":"c","criteria":["a"]}`},
	)
	g := New(provider, Config{})

	for i := 0; i < 2; i++ {
		raw, err := g.Invoke(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user"})
		require.NoError(t, err, "call %d", i)
		assert.JSONEq(t, `{"purpose":"p","context":"c","criteria":["a"]}`, string(raw))
	}
	assert.Equal(t, 6, provider.callCount())
}

func TestInvoke_TransportErrorsAreRetried(t *testing.T) {
	provider := newScripted(
		reply{err: errors.New("connection reset")},
		reply{content: `[{"idea":"x"}]`},
	)
	g := New(provider, Config{})

	raw, err := g.Invoke(context.Background(), Request{UserPrompt: "u", ExpectArray: true})
	require.NoError(t, err)
	assert.True(t, IsArray(raw))
	assert.Equal(t, 2, provider.callCount())
}

func TestInvoke_ExhaustsAttempts(t *testing.T) {
	provider := newScripted(
		reply{content: "nope"},
		reply{content: "still nope"},
		reply{content: "never"},
		reply{content: `{"unused":true}`},
	)
	g := New(provider, Config{})

	_, err := g.Invoke(context.Background(), Request{UserPrompt: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Contains(t, err.Error(), "failed to get valid response after 3 attempts")
	assert.Equal(t, 3, provider.callCount())
}

func TestInvoke_CustomAttempts(t *testing.T) {
	provider := newScripted(reply{content: "x"}, reply{content: "y"}, reply{content: "z"})
	g := New(provider, Config{Retry: RetryConfig{MaxAttempts: 2}})

	_, err := g.Invoke(context.Background(), Request{UserPrompt: "u"})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 2, provider.callCount())
}

func TestInvoke_PermanentErrorStopsRetrying(t *testing.T) {
	provider := newScripted(
		reply{err: Permanent(errors.New("bad credentials"))},
		reply{content: `{}`},
	)
	g := New(provider, Config{})

	_, err := g.Invoke(context.Background(), Request{UserPrompt: "u"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, provider.callCount())
}

func TestInvoke_AppliesDefaults(t *testing.T) {
	provider := newScripted(reply{content: `{}`}, reply{content: `{}`}, reply{content: `{}`})
	g := New(provider, Config{})

	_, err := g.Invoke(context.Background(), Request{UserPrompt: "u"})
	require.NoError(t, err)
	_, err = g.Invoke(context.Background(), Request{UserPrompt: "u", Model: "gpt-4o", Temperature: Temperature(1.3)})
	require.NoError(t, err)
	_, err = g.Invoke(context.Background(), Request{UserPrompt: "u", Temperature: Temperature(0)})
	require.NoError(t, err)

	require.Len(t, provider.calls, 3)
	assert.Equal(t, DefaultModel, provider.calls[0].Model)
	require.NotNil(t, provider.calls[0].Temperature)
	assert.Equal(t, 1.0, *provider.calls[0].Temperature)
	assert.True(t, provider.calls[0].JSONMode)
	assert.Equal(t, "gpt-4o", provider.calls[1].Model)
	assert.Equal(t, 1.3, *provider.calls[1].Temperature)

	// Zero asks for deterministic output and is kept.
	require.NotNil(t, provider.calls[2].Temperature)
	assert.Zero(t, *provider.calls[2].Temperature)
}

func TestInvoke_ContextCancelled(t *testing.T) {
	provider := newScripted(reply{content: `{}`})
	g := New(provider, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Invoke(ctx, Request{UserPrompt: "u"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.callCount())
}

func TestChat_RetriesEmptyReplies(t *testing.T) {
	provider := newScripted(reply{content: "   "}, reply{content: "Try a pop-up shop."})
	g := New(provider, Config{})

	c, err := g.Chat(context.Background(), Request{
		SystemPrompt: "assistant",
		History:      []Message{{Role: RoleUser, Content: "ideas?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Try a pop-up shop.", c.Content)
	assert.False(t, provider.calls[0].JSONMode)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"object", `{"a":1}`, `{"a":1}`, nil},
		{"array with whitespace", "\n  [1,2]  \n", `[1,2]`, nil},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`, nil},
		{"bare fence", "```\n[true]\n```", `[true]`, nil},
		{"empty", "  ", "", ErrEmptyResponse},
		{"prose", "Here you go", "", ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestDecode(t *testing.T) {
	type idea struct {
		Idea string `json:"idea"`
	}
	ideas, err := Decode[[]idea](json.RawMessage(`[{"idea":"a"},{"idea":"b"}]`))
	require.NoError(t, err)
	assert.Equal(t, []idea{{"a"}, {"b"}}, ideas)

	_, err = Decode[[]idea](json.RawMessage(`{"idea":"a"}`))
	assert.Error(t, err)
}

func TestRequest_Messages(t *testing.T) {
	req := Request{
		SystemPrompt: "sys",
		UserPrompt:   "now",
		History: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	}
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "now"},
	}, req.Messages())
}

func TestWithRetry_Backoff(t *testing.T) {
	var stamps []time.Time
	result := WithRetry(context.Background(), RetryConfig{
		MaxAttempts:   3,
		Backoff:       5 * time.Millisecond,
		BackoffFactor: 2,
	}, func(ctx context.Context, attempt int) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("fail")
	})

	assert.Error(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 5*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 10*time.Millisecond)
}

func TestWithRetry_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	result := WithRetry(ctx, RetryConfig{MaxAttempts: 3, Backoff: time.Hour}, func(ctx context.Context, attempt int) (int, error) {
		cancel()
		return 0, errors.New("fail")
	})

	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 1, result.Attempts)
}
