// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// FunctionClient calls the stateless chat-completion function.
//
// Access this client through [Client.Functions]. The function answers with a
// bare [FunctionResponse] rather than the API envelope.
type FunctionClient struct {
	c *Client
}

// ChatCompletion runs one completion. A response with Success false is
// returned together with an error carrying its message.
func (f *FunctionClient) ChatCompletion(ctx context.Context, fr FunctionRequest) (*FunctionResponse, error) {
	body, err := json.Marshal(fr)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := f.c.newRequest(ctx, http.MethodPost, "/api/v1/functions/chat-completion", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	resp, err := f.c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out FunctionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
	}
	if !out.Success {
		return &out, &APIError{Status: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}
