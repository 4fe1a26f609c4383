// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Idea is a persisted generated idea.
type Idea struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	SchemaVersionID string    `json:"schemaVersionId"`
	Idea            string    `json:"idea"`
	Description     string    `json:"description"`
	EvaluationScore string    `json:"evaluationScore"`
	UserRanking     *int      `json:"userRanking,omitempty"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SaveIdeas inserts a batch of ideas for a schema version in one
// transaction. Ids and positions are assigned and the stored ideas returned.
func (s *Store) SaveIdeas(ctx context.Context, sessionID, schemaVersionID string, ideas []Idea) ([]Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if len(ideas) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save ideas: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO ideas (id, session_id, schema_version_id, idea, description,
			evaluation_score, user_ranking, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return nil, fmt.Errorf("save ideas: %w", err)
	}
	defer stmt.Close()

	created := s.timestamp()
	saved := make([]Idea, len(ideas))
	for i, idea := range ideas {
		idea.ID = newID()
		idea.SessionID = sessionID
		idea.SchemaVersionID = schemaVersionID
		idea.Position = i
		idea.CreatedAt = parseTime(created)

		var ranking sql.NullInt64
		if idea.UserRanking != nil {
			ranking = sql.NullInt64{Int64: int64(*idea.UserRanking), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, idea.ID, sessionID, schemaVersionID, idea.Idea,
			idea.Description, idea.EvaluationScore, ranking, idea.Position, created); err != nil {
			return nil, fmt.Errorf("save idea %d: %w", i, err)
		}
		saved[i] = idea
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save ideas: %w", err)
	}
	return saved, nil
}

// ListSessionIdeas returns every idea of a session in creation order.
func (s *Store) ListSessionIdeas(ctx context.Context, sessionID string) ([]Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, session_id, schema_version_id, idea, description,
			evaluation_score, user_ranking, position, created_at
		FROM ideas WHERE session_id = ?
		ORDER BY created_at ASC, position ASC
	`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		var idea Idea
		var ranking sql.NullInt64
		var created string
		if err := rows.Scan(&idea.ID, &idea.SessionID, &idea.SchemaVersionID, &idea.Idea,
			&idea.Description, &idea.EvaluationScore, &ranking, &idea.Position, &created); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		if ranking.Valid {
			r := int(ranking.Int64)
			idea.UserRanking = &r
		}
		idea.CreatedAt = parseTime(created)
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return ideas, nil
}

// UpdateIdeaRankings sets the user ranking of each idea in rankings, keyed by
// idea id. Updates are issued concurrently without a transaction. A failed
// update does not stop the others; the first error is returned.
func (s *Store) UpdateIdeaRankings(ctx context.Context, rankings map[string]int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	query := s.rebind(`UPDATE ideas SET user_ranking = ? WHERE id = ?`)

	var g errgroup.Group
	for id, ranking := range rankings {
		g.Go(func() error {
			res, err := s.db.ExecContext(ctx, query, ranking, id)
			if err != nil {
				return fmt.Errorf("update ranking for idea %s: %w", id, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("idea %s: %w", id, ErrNotFound)
			}
			return nil
		})
	}
	return g.Wait()
}
