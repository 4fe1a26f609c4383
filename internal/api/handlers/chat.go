// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"net/http"

	"github.com/wingedpig/ideaforge/internal/api/middleware"
	"github.com/wingedpig/ideaforge/internal/chat"
	"github.com/wingedpig/ideaforge/internal/gateway"
	"github.com/wingedpig/ideaforge/internal/store"
)

// Assistant answers chat submissions.
type Assistant interface {
	Send(ctx context.Context, userID string, messages []gateway.Message) (*chat.Reply, error)
	History(ctx context.Context, userID string) ([]store.ChatRecord, error)
}

// ChatHandler handles the ideation assistant chat.
type ChatHandler struct {
	assistant Assistant
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(assistant Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// ChatRequest is the body of POST /chat: the conversation so far, ending
// with the user's new message.
type ChatRequest struct {
	Messages []gateway.Message `json:"messages"`
}

// Send submits a conversation and returns the assistant's reply.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reply, err := h.assistant.Send(r.Context(), middleware.UserID(r.Context()), req.Messages)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeVersioned(w, r, http.StatusOK, "chat.send", reply)
}

// History returns the caller's stored chat exchanges.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.assistant.History(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if records == nil {
		records = []store.ChatRecord{}
	}
	writeVersioned(w, r, http.StatusOK, "chat.history", records)
}
