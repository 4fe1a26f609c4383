// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
)

// ChatClient talks to the brainstorming assistant.
//
// Access this client through [Client.Chat]. Messages sent faster than the
// server's debounce fail with a RATE_LIMITED [APIError].
type ChatClient struct {
	c *Client
}

// Send submits the conversation so far, ending with the user's new message,
// and returns the reply.
func (cc *ChatClient) Send(ctx context.Context, messages []Message) (*ChatReply, error) {
	var reply ChatReply
	body := map[string][]Message{"messages": messages}
	if err := cc.c.sendInto(ctx, http.MethodPost, "/api/v1/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// History returns the user's stored exchanges.
func (cc *ChatClient) History(ctx context.Context) ([]ChatRecord, error) {
	var records []ChatRecord
	if err := cc.c.getInto(ctx, "/api/v1/chat/history", &records); err != nil {
		return nil, err
	}
	return records, nil
}
