// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Session is one brainstorming run started from a context input.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Context     string    `json:"context"`
	Purpose     string    `json:"purpose"`
	Preferences string    `json:"preferences"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SchemaVersion is a numbered snapshot of a session's schema.
type SchemaVersion struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Version   int             `json:"versionNumber"`
	Schema    json.RawMessage `json:"schemaData"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SaveSession inserts a session and returns its id. A new id is assigned
// when s.ID is empty.
func (s *Store) SaveSession(ctx context.Context, sess Session) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	if sess.ID == "" {
		sess.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO ideation_sessions (id, user_id, context, purpose, preferences, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), sess.ID, sess.UserID, sess.Context, sess.Purpose, sess.Preferences, s.timestamp())
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return sess.ID, nil
}

// LoadSession returns the session with the given id.
func (s *Store) LoadSession(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, user_id, context, purpose, preferences, created_at
		FROM ideation_sessions WHERE id = ?
	`), id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// ListUserSessions returns a user's sessions, newest first.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, context, purpose, preferences, created_at
		FROM ideation_sessions WHERE user_id = ?
		ORDER BY created_at DESC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var created string
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.Context, &sess.Purpose, &sess.Preferences, &created); err != nil {
		return nil, err
	}
	sess.CreatedAt = parseTime(created)
	return &sess, nil
}

// SaveSchemaVersion stores schema as version number version of a session and
// returns the new version id.
func (s *Store) SaveSchemaVersion(ctx context.Context, sessionID string, schema json.RawMessage, version int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrStoreClosed
	}
	if !json.Valid(schema) {
		return "", fmt.Errorf("save schema version: schema is not valid JSON")
	}

	id := newID()
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO schema_versions (id, session_id, version_number, schema_data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), id, sessionID, version, string(schema), s.timestamp())
	if err != nil {
		return "", fmt.Errorf("save schema version: %w", err)
	}
	return id, nil
}

// ListSchemaVersions returns a session's schema versions in ascending
// version order.
func (s *Store) ListSchemaVersions(ctx context.Context, sessionID string) ([]SchemaVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, session_id, version_number, schema_data, created_at
		FROM schema_versions WHERE session_id = ?
		ORDER BY version_number ASC
	`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("list schema versions: %w", err)
	}
	defer rows.Close()

	var versions []SchemaVersion
	for rows.Next() {
		v, err := scanSchemaVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema versions: %w", err)
	}
	return versions, nil
}

// LatestSchemaVersion returns the highest-numbered schema version of a
// session.
func (s *Store) LatestSchemaVersion(ctx context.Context, sessionID string) (*SchemaVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, session_id, version_number, schema_data, created_at
		FROM schema_versions WHERE session_id = ?
		ORDER BY version_number DESC
		LIMIT 1
	`), sessionID)

	v, err := scanSchemaVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest schema version: %w", err)
	}
	return v, nil
}

func scanSchemaVersion(row scanner) (*SchemaVersion, error) {
	var v SchemaVersion
	var data, created string
	if err := row.Scan(&v.ID, &v.SessionID, &v.Version, &data, &created); err != nil {
		return nil, err
	}
	v.Schema = json.RawMessage(data)
	v.CreatedAt = parseTime(created)
	return &v, nil
}
