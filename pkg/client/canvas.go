// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"net/url"
)

// CanvasClient reads and arranges the canvas of a session.
//
// Access this client through [Client.Canvas].
type CanvasClient struct {
	c *Client
}

// Get returns the canvas with its bounds and connector paths.
func (cc *CanvasClient) Get(ctx context.Context, sessionID string) (*CanvasView, error) {
	var v CanvasView
	if err := cc.c.getInto(ctx, sessionPath(sessionID)+"/canvas", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Move drags a panel by a screen-space delta and returns the moved panel.
// The server divides the delta by the current scale.
func (cc *CanvasClient) Move(ctx context.Context, sessionID, panelID string, dx, dy float64) (*Panel, error) {
	path := sessionPath(sessionID) + "/canvas/panels/" + url.PathEscape(panelID) + "/move"
	var p Panel
	if err := cc.c.sendInto(ctx, http.MethodPost, path, map[string]float64{"dx": dx, "dy": dy}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetScale sets the zoom and returns the value after clamping.
func (cc *CanvasClient) SetScale(ctx context.Context, sessionID string, scale float64) (float64, error) {
	var resp struct {
		Scale float64 `json:"scale"`
	}
	if err := cc.c.sendInto(ctx, http.MethodPut, sessionPath(sessionID)+"/canvas/scale", map[string]float64{"scale": scale}, &resp); err != nil {
		return 0, err
	}
	return resp.Scale, nil
}
