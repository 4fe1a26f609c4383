// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// CanvasState is the latest canvas snapshot of a session.
type CanvasState struct {
	SessionID string          `json:"sessionId"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SaveCanvas stores the canvas snapshot of a session, replacing any previous
// one.
func (s *Store) SaveCanvas(ctx context.Context, sessionID string, state json.RawMessage) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO canvases (session_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`), sessionID, string(state), s.timestamp())
	if err != nil {
		return fmt.Errorf("save canvas: %w", err)
	}
	return nil
}

// LoadCanvas returns the stored canvas snapshot of a session.
func (s *Store) LoadCanvas(ctx context.Context, sessionID string) (*CanvasState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var state, updated string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT state, updated_at FROM canvases WHERE session_id = ?
	`), sessionID).Scan(&state, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load canvas: %w", err)
	}

	return &CanvasState{
		SessionID: sessionID,
		State:     json.RawMessage(state),
		UpdatedAt: parseTime(updated),
	}, nil
}

// ChatRecord is one assistant exchange.
type ChatRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Messages  json.RawMessage `json:"messages"`
	Response  string          `json:"response"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AppendChat stores a chat exchange and returns its id.
func (s *Store) AppendChat(ctx context.Context, rec ChatRecord) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	if len(rec.Messages) == 0 {
		rec.Messages = json.RawMessage("[]")
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO chat_history (id, user_id, messages, response, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), rec.ID, rec.UserID, string(rec.Messages), rec.Response, s.timestamp())
	if err != nil {
		return "", fmt.Errorf("append chat: %w", err)
	}
	return rec.ID, nil
}

// ListChat returns the most recent limit exchanges of a user, oldest first.
// A limit of zero or less returns all of them.
func (s *Store) ListChat(ctx context.Context, userID string, limit int) ([]ChatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT id, user_id, messages, response, created_at
		FROM chat_history WHERE user_id = ?
		ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list chat: %w", err)
	}
	defer rows.Close()

	var records []ChatRecord
	for rows.Next() {
		var rec ChatRecord
		var messages, created string
		if err := rows.Scan(&rec.ID, &rec.UserID, &messages, &rec.Response, &created); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		rec.Messages = json.RawMessage(messages)
		rec.CreatedAt = parseTime(created)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat: %w", err)
	}

	slices.Reverse(records)
	return records, nil
}
