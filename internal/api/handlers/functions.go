// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/wingedpig/ideaforge/internal/gateway"
)

// FunctionHandler serves the remote completion function contract, so one
// instance can act as the completion backend of another.
type FunctionHandler struct {
	provider     gateway.Provider
	defaultModel string
	logger       *zap.Logger
}

// NewFunctionHandler creates a handler answering with provider.
func NewFunctionHandler(provider gateway.Provider, defaultModel string, logger *zap.Logger) *FunctionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FunctionHandler{provider: provider, defaultModel: defaultModel, logger: logger.Named("function")}
}

// ChatCompletion answers a FunctionRequest. The body is the bare
// FunctionResponse, not the API envelope, because FunctionProvider clients
// read it directly.
func (h *FunctionHandler) ChatCompletion(w http.ResponseWriter, r *http.Request) {
	var fr gateway.FunctionRequest
	if err := json.NewDecoder(r.Body).Decode(&fr); err != nil {
		writeFunction(w, http.StatusBadRequest, gateway.FunctionResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(fr.UserPrompt) == "" && strings.TrimSpace(fr.SystemPrompt) == "" {
		writeFunction(w, http.StatusBadRequest, gateway.FunctionResponse{Error: "systemPrompt or userPrompt is required"})
		return
	}

	resp := gateway.Serve(r.Context(), h.provider, h.defaultModel, fr)
	if !resp.Success {
		h.logger.Warn("completion failed", zap.String("provider", h.provider.Name()), zap.String("error", resp.Error))
		writeFunction(w, http.StatusBadGateway, resp)
		return
	}
	writeFunction(w, http.StatusOK, resp)
}

func writeFunction(w http.ResponseWriter, status int, resp gateway.FunctionResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
