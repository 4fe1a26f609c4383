// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SessionClient drives the brainstorming workflow.
//
// Access this client through [Client.Sessions]. Every workflow call returns
// the [View] of the session after the transition. Calling a step out of
// order fails with a CONFLICT [APIError].
type SessionClient struct {
	c *Client
}

func sessionPath(id string) string {
	return "/api/v1/sessions/" + url.PathEscape(id)
}

// Presets lists the ready-made context inputs.
func (s *SessionClient) Presets(ctx context.Context) ([]Preset, error) {
	var presets []Preset
	if err := s.c.getInto(ctx, "/api/v1/presets", &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// Create starts a session and generates its initial schema.
func (s *SessionClient) Create(ctx context.Context, in ContextInput) (*View, error) {
	return s.create(ctx, in)
}

// CreateFromPreset starts a session from a preset. Non-empty fields of in
// override the preset.
func (s *SessionClient) CreateFromPreset(ctx context.Context, preset string, in ContextInput) (*View, error) {
	return s.create(ctx, struct {
		ContextInput
		Preset string `json:"preset"`
	}{in, preset})
}

func (s *SessionClient) create(ctx context.Context, body interface{}) (*View, error) {
	var v View
	if err := s.c.sendInto(ctx, http.MethodPost, "/api/v1/sessions", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns the user's sessions, newest first.
func (s *SessionClient) List(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := s.c.getInto(ctx, "/api/v1/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Get returns the workflow state of a session.
func (s *SessionClient) Get(ctx context.Context, id string) (*View, error) {
	var v View
	if err := s.c.getInto(ctx, sessionPath(id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// History returns the stored schema versions and ideas of a session.
func (s *SessionClient) History(ctx context.Context, id string) (*SessionHistory, error) {
	var h SessionHistory
	if err := s.c.getInto(ctx, sessionPath(id)+"/history", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ConfirmSchema confirms the (possibly edited) schema.
func (s *SessionClient) ConfirmSchema(ctx context.Context, id string, schema Schema) (*View, error) {
	return s.step(ctx, http.MethodPost, sessionPath(id)+"/schema", schema)
}

// GenerateIdeas generates and evaluates ideas for the confirmed schema.
func (s *SessionClient) GenerateIdeas(ctx context.Context, id string) (*View, error) {
	return s.step(ctx, http.MethodPost, sessionPath(id)+"/ideas", nil)
}

// Rate sets the ranking of the idea at index. Values run from 1 to 10.
func (s *SessionClient) Rate(ctx context.Context, id string, index, value int) (*View, error) {
	path := sessionPath(id) + "/rankings/" + strconv.Itoa(index)
	return s.step(ctx, http.MethodPut, path, map[string]int{"value": value})
}

// SubmitRankings submits rankings keyed by idea index. Together with the
// rankings already given, every idea must be ranked.
func (s *SessionClient) SubmitRankings(ctx context.Context, id string, rankings map[int]int) (*View, error) {
	body := make(map[string]int, len(rankings))
	for i, v := range rankings {
		body[RankingKey(i)] = v
	}
	return s.step(ctx, http.MethodPost, sessionPath(id)+"/rankings", map[string]interface{}{"rankings": body})
}

// Refine refines the schema from the rankings and starts a new iteration.
func (s *SessionClient) Refine(ctx context.Context, id string) (*View, error) {
	return s.step(ctx, http.MethodPost, sessionPath(id)+"/refine", nil)
}

// RankingKey returns the key the server uses for the idea at index in
// [RankingStatus.Rankings].
func RankingKey(index int) string {
	return "idea-" + strconv.Itoa(index)
}

func (s *SessionClient) step(ctx context.Context, method, path string, body interface{}) (*View, error) {
	var v View
	if err := s.c.sendInto(ctx, method, path, body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
