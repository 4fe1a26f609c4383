// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wingedpig/ideaforge/internal/api/middleware"
	"github.com/wingedpig/ideaforge/internal/canvas"
	"github.com/wingedpig/ideaforge/internal/ideation"
	"github.com/wingedpig/ideaforge/internal/store"
)

// Workspaces drives the brainstorming workflow of each session.
type Workspaces interface {
	Start(ctx context.Context, userID string, in ideation.ContextInput) (*ideation.View, error)
	ConfirmSchema(ctx context.Context, userID, sessionID string, schema ideation.Schema) (*ideation.View, error)
	GenerateIdeas(ctx context.Context, userID, sessionID string) (*ideation.View, error)
	Rate(ctx context.Context, userID, sessionID string, index, value int) (*ideation.View, error)
	SubmitRankings(ctx context.Context, userID, sessionID string, values map[string]int) (*ideation.View, error)
	Refine(ctx context.Context, userID, sessionID string) (*ideation.View, error)
	Get(ctx context.Context, userID, sessionID string) (*ideation.View, error)
	List(ctx context.Context, userID string) ([]store.Session, error)
	Canvas(ctx context.Context, userID, sessionID string) (*ideation.CanvasView, error)
	Move(ctx context.Context, userID, sessionID, panelID string, dx, dy float64) (canvas.Panel, error)
	SetScale(ctx context.Context, userID, sessionID string, scale float64) (float64, error)
	History(ctx context.Context, userID, sessionID string) (*ideation.SessionHistory, error)
}

// SessionHandler handles session and canvas API requests.
type SessionHandler struct {
	workspaces Workspaces
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(workspaces Workspaces) *SessionHandler {
	return &SessionHandler{workspaces: workspaces}
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	ideation.ContextInput
	Preset string `json:"preset,omitempty"`
}

// RateRequest is the body of PUT /sessions/{id}/rankings/{index}.
type RateRequest struct {
	Value int `json:"value"`
}

// RankingsRequest is the body of POST /sessions/{id}/rankings.
type RankingsRequest struct {
	Rankings map[string]int `json:"rankings"`
}

// MoveRequest is the body of POST /sessions/{id}/canvas/panels/{panel}/move.
type MoveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ScaleRequest is the body of PUT /sessions/{id}/canvas/scale.
type ScaleRequest struct {
	Scale float64 `json:"scale"`
}

// Presets lists the context input presets.
func (h *SessionHandler) Presets(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ideation.Presets())
}

// Create starts a session from a context input, optionally filled from a
// preset.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := req.ContextInput
	if req.Preset != "" {
		preset, ok := ideation.FindPreset(req.Preset)
		if !ok {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, fmt.Sprintf("unknown preset %q", req.Preset))
			return
		}
		in = preset.Apply(in)
	}

	view, err := h.workspaces.Start(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeVersioned(w, r, http.StatusCreated, "sessions.get", view)
}

// List returns the caller's sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.workspaces.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeVersioned(w, r, http.StatusOK, "sessions.list", sessions)
}

// Get returns the workflow state of a session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaces.Get(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.writeView(w, r, view, err)
}

// History returns the stored schema versions and ideas of a session.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	hist, err := h.workspaces.History(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeVersioned(w, r, http.StatusOK, "sessions.history", hist)
}

// ConfirmSchema accepts the edited schema.
func (h *SessionHandler) ConfirmSchema(w http.ResponseWriter, r *http.Request) {
	var schema ideation.Schema
	if !decodeBody(w, r, &schema) {
		return
	}
	view, err := h.workspaces.ConfirmSchema(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], schema)
	h.writeView(w, r, view, err)
}

// GenerateIdeas generates and evaluates ideas for the confirmed schema.
func (h *SessionHandler) GenerateIdeas(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaces.GenerateIdeas(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.writeView(w, r, view, err)
}

// Rate sets the ranking of one idea.
func (h *SessionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "index must be an integer")
		return
	}
	var req RateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := h.workspaces.Rate(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], index, req.Value)
	h.writeView(w, r, view, err)
}

// SubmitRankings submits the ranking sheet and completes the ranking step.
func (h *SessionHandler) SubmitRankings(w http.ResponseWriter, r *http.Request) {
	var req RankingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := h.workspaces.SubmitRankings(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], req.Rankings)
	h.writeView(w, r, view, err)
}

// Refine refines the schema from the rankings and starts the next iteration.
func (h *SessionHandler) Refine(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaces.Refine(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.writeView(w, r, view, err)
}

// Canvas returns the canvas snapshot with bounds and connector paths.
func (h *SessionHandler) Canvas(w http.ResponseWriter, r *http.Request) {
	cv, err := h.workspaces.Canvas(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeVersioned(w, r, http.StatusOK, "canvas.get", cv)
}

// Move drags a panel.
func (h *SessionHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	panel, err := h.workspaces.Move(r.Context(), middleware.UserID(r.Context()), vars["id"], vars["panel"], req.DX, req.DY)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeVersioned(w, r, http.StatusOK, "canvas.move", panel)
}

// Scale sets the canvas zoom.
func (h *SessionHandler) Scale(w http.ResponseWriter, r *http.Request) {
	var req ScaleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scale, err := h.workspaces.SetScale(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], req.Scale)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ScaleRequest{Scale: scale})
}

func (h *SessionHandler) writeView(w http.ResponseWriter, r *http.Request, view *ideation.View, err error) {
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeVersioned(w, r, http.StatusOK, "sessions.get", view)
}
