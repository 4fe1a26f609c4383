// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FunctionRequest is the body accepted by a remote completion function.
type FunctionRequest struct {
	SystemPrompt string   `json:"systemPrompt"`
	UserPrompt   string   `json:"userPrompt"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	ExpectArray  bool     `json:"expectArray,omitempty"`
}

// FunctionResponse is the body returned by a remote completion function. Data
// holds the model reply, itself a JSON document encoded as a string.
type FunctionResponse struct {
	Success bool   `json:"success,omitempty"`
	Data    string `json:"data,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FunctionConfig configures a FunctionProvider.
type FunctionConfig struct {
	URL        string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// FunctionProvider calls a remote completion function over HTTP.
type FunctionProvider struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewFunctionProvider creates a provider for the function at cfg.URL.
func NewFunctionProvider(cfg FunctionConfig) *FunctionProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &FunctionProvider{url: cfg.URL, token: cfg.Token, httpClient: hc}
}

// Name implements Provider.
func (p *FunctionProvider) Name() string {
	return "function"
}

// Complete implements Provider.
func (p *FunctionProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	if p.url == "" {
		return nil, Permanent(errors.New("function: URL not configured"))
	}

	data, err := json.Marshal(FunctionRequest{
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Model:        req.Model,
		Temperature:  req.Temperature,
		ExpectArray:  req.ExpectArray,
	})
	if err != nil {
		return nil, Permanent(fmt.Errorf("function: marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return nil, Permanent(fmt.Errorf("function: create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("function: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("function: read response: %w", err)
	}

	var parsed FunctionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("function: status %d: parse response: %w", resp.StatusCode, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("function: %s", parsed.Error)
	}
	if !parsed.Success || parsed.Data == "" {
		return nil, fmt.Errorf("function: unsuccessful response (status %d)", resp.StatusCode)
	}

	return &Completion{Content: parsed.Data, Model: parsed.Model, Usage: parsed.Usage}, nil
}

// Serve answers a FunctionRequest using provider, producing the response a
// FunctionProvider expects. Provider failures are reported in the Error field.
func Serve(ctx context.Context, provider Provider, defaultModel string, fr FunctionRequest) FunctionResponse {
	req := Request{
		SystemPrompt: fr.SystemPrompt,
		UserPrompt:   fr.UserPrompt,
		Model:        fr.Model,
		Temperature:  fr.Temperature,
		ExpectArray:  fr.ExpectArray,
		JSONMode:     true,
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if req.Temperature == nil {
		req.Temperature = Temperature(DefaultTemperature)
	}

	completion, err := provider.Complete(ctx, req)
	if err != nil {
		return FunctionResponse{Error: err.Error()}
	}
	return FunctionResponse{
		Success: true,
		Data:    completion.Content,
		Usage:   completion.Usage,
		Model:   completion.Model,
	}
}
