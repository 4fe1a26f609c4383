// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wingedpig/ideaforge/internal/api/version"
	"github.com/wingedpig/ideaforge/internal/canvas"
	"github.com/wingedpig/ideaforge/internal/chat"
	"github.com/wingedpig/ideaforge/internal/gateway"
	"github.com/wingedpig/ideaforge/internal/ideation"
	"github.com/wingedpig/ideaforge/internal/store"
)

// Response is the standard API response wrapper.
type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
	Meta  *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MetaInfo contains response metadata.
type MetaInfo struct {
	Timestamp time.Time `json:"timestamp"`
}

// Common error codes
const (
	ErrNotFound      = "NOT_FOUND"
	ErrBadRequest    = "BAD_REQUEST"
	ErrInternalError = "INTERNAL_ERROR"
	ErrConflict      = "CONFLICT"
	ErrGatewayError  = "GATEWAY_ERROR"
	ErrRateLimited   = "RATE_LIMITED"
	ErrUnauthorized  = "UNAUTHORIZED"
)

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	resp := Response{
		Data: data,
		Meta: &MetaInfo{Timestamp: time.Now()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorWithDetails(w, status, code, message, nil)
}

// WriteErrorWithDetails writes an error response with details.
func WriteErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	resp := Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &MetaInfo{Timestamp: time.Now()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteDomainError maps an error from the workflow packages to a status and
// error code. Unrecognized errors are internal errors.
func WriteDomainError(w http.ResponseWriter, err error) {
	var verr *ideation.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string]interface{}, len(verr.Errors))
		for _, fe := range verr.Errors {
			fields[fe.Field] = fe.Message
		}
		WriteErrorWithDetails(w, http.StatusBadRequest, ErrBadRequest, err.Error(), map[string]interface{}{"fields": fields})
		return
	}

	status, code := errorStatus(err)
	WriteError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ideation.ErrInvalidSchema),
		errors.Is(err, ideation.ErrInvalidRanking),
		errors.Is(err, ideation.ErrRankingIncomplete),
		errors.Is(err, chat.ErrNoMessage):
		return http.StatusBadRequest, ErrBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, canvas.ErrPanelNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, ideation.ErrWrongStep),
		errors.Is(err, ideation.ErrBusy),
		errors.Is(err, canvas.ErrPanelNotActive):
		return http.StatusConflict, ErrConflict
	case errors.Is(err, chat.ErrTooSoon):
		return http.StatusTooManyRequests, ErrRateLimited
	case errors.Is(err, gateway.ErrExhausted),
		gateway.IsPermanent(err),
		errors.Is(err, ideation.ErrInvalidReply),
		errors.Is(err, ideation.ErrInvalidIdeas):
		return http.StatusBadGateway, ErrGatewayError
	default:
		return http.StatusInternalServerError, ErrInternalError
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON")
		return false
	}
	return true
}

// writeVersioned writes data after applying the transformer registered for
// the request's API version and endpoint.
func writeVersioned(w http.ResponseWriter, r *http.Request, status int, endpoint string, data interface{}) {
	WriteJSON(w, status, version.Transform(version.FromContext(r.Context()), endpoint, data))
}
