// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/json"
	"strconv"
	"time"
)

// Health is the response of the health endpoint.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Step names, in the order a session visits them.
const (
	StepContextInput     = "context-input"
	StepSchemaEditing    = "schema-editing"
	StepIdeaGeneration   = "idea-generation"
	StepRanking          = "ranking"
	StepSchemaRefinement = "schema-refinement"
)

// ContextInput is what the user brings to a new session.
type ContextInput struct {
	Context     string `json:"context"`
	Purpose     string `json:"purpose"`
	Preferences string `json:"preferences"`
}

// Preset is a ready-made context input.
type Preset struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Purpose     string            `json:"purpose"`
	Schema      map[string]string `json:"schema"`
}

// Session is a stored brainstorming session.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Context     string    `json:"context"`
	Purpose     string    `json:"purpose"`
	Preferences string    `json:"preferences"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Schema is the structured description ideas are generated against.
type Schema struct {
	Purpose     string   `json:"purpose"`
	Context     string   `json:"context"`
	Criteria    []string `json:"criteria"`
	Constraints []string `json:"constraints"`

	// SuccessfulIdeas and PastIdeas are filled by refinement.
	SuccessfulIdeas []string `json:"successful_ideas,omitempty"`
	PastIdeas       []string `json:"past_ideas,omitempty"`
}

// Idea is one generated idea.
type Idea struct {
	Idea        string `json:"idea"`
	Description string `json:"description"`

	// Evaluation is the model's 0-100 score as text. Empty before evaluation.
	Evaluation string `json:"evaluation,omitempty"`
}

// Score returns the evaluation as a number, or 0 when it is not one.
func (i Idea) Score() int {
	f, err := strconv.ParseFloat(i.Evaluation, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// Insights summarizes the rankings given so far.
type Insights struct {
	Average    float64 `json:"avgRanking"`
	HighRanked int     `json:"highRanked"`
	Total      int     `json:"total"`
}

// RankingStatus reports progress through the ranking step. Rankings are
// keyed by [RankingKey].
type RankingStatus struct {
	Rankings  map[string]int `json:"rankings"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Ready     bool           `json:"ready"`
	Insights  Insights       `json:"insights"`
}

// View is the workflow state of a session. Every workflow call returns the
// view after the transition.
type View struct {
	Session       Session        `json:"session"`
	Step          string         `json:"step"`
	ActivePanelID string         `json:"activePanelId"`
	Iteration     int            `json:"iteration"`
	Schema        Schema         `json:"schema"`
	SchemaVersion int            `json:"schemaVersion"`
	Ideas         []Idea         `json:"ideas,omitempty"`
	Ranking       *RankingStatus `json:"ranking,omitempty"`
	Busy          bool           `json:"busy"`
}

// SchemaVersion is one stored schema of a session.
type SchemaVersion struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Version   int             `json:"versionNumber"`
	Schema    json.RawMessage `json:"schemaData"`
	CreatedAt time.Time       `json:"createdAt"`
}

// StoredIdea is a persisted idea with the user's ranking, if given.
type StoredIdea struct {
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

// SessionHistory is everything persisted for a session.
type SessionHistory struct {
	Session        Session         `json:"session"`
	SchemaVersions []SchemaVersion `json:"schemaVersions"`
	Ideas          []StoredIdea    `json:"ideas"`
}

// Position is a point in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Panel is one step drawn on the canvas.
type Panel struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Iteration int             `json:"iteration"`
	Position  Position        `json:"position"`
	Active    bool            `json:"isActive"`
	Completed bool            `json:"isCompleted"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Iteration is one pass through the brainstorming loop.
type Iteration struct {
	Number    int             `json:"number"`
	PanelIDs  []string        `json:"panelIds"`
	Schema    json.RawMessage `json:"schema,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
}

// Connection types.
const (
	ConnectionWorkflow      = "workflow"
	ConnectionIterationLoop = "iteration-loop"
)

// Connection is an edge between two panels.
type Connection struct {
	ID            string   `json:"id"`
	From          string   `json:"fromPanelId"`
	To            string   `json:"toPanelId"`
	Type          string   `json:"type"`
	FromPoint     Position `json:"fromPoint"`
	ToPoint       Position `json:"toPoint"`
	IterationFrom int      `json:"iterationFrom"`
	IterationTo   int      `json:"iterationTo"`
}

// Bounds is the rectangle enclosing every panel, padded.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Path is the drawable route of a connection. D is an SVG path.
type Path struct {
	ConnectionID string     `json:"connectionId"`
	Points       []Position `json:"points"`
	D            string     `json:"d"`
	Label        string     `json:"label"`
}

// CanvasSnapshot is the full canvas state.
type CanvasSnapshot struct {
	Panels           []Panel      `json:"panels"`
	Iterations       []Iteration  `json:"iterations"`
	Connections      []Connection `json:"connections"`
	CurrentIteration int          `json:"currentIteration"`
	ActivePanelID    string       `json:"activePanelId"`
	Scale            float64      `json:"scale"`
	Offset           Position     `json:"offset"`
}

// CanvasView is the canvas with derived geometry.
type CanvasView struct {
	Canvas CanvasSnapshot `json:"canvas"`
	Bounds Bounds         `json:"bounds"`
	Paths  []Path         `json:"paths"`
}

// Message is one chat message. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the assistant's answer to one submission.
type ChatReply struct {
	ID        string    `json:"id,omitempty"`
	Message   Message   `json:"message"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatRecord is one stored chat exchange.
type ChatRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Messages  json.RawMessage `json:"messages"`
	Response  string          `json:"response"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Event is one entry of the event log.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Session   string                 `json:"session,omitempty"`
	User      string                 `json:"user,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// FunctionRequest is the body of the chat-completion function.
type FunctionRequest struct {
	SystemPrompt string   `json:"systemPrompt"`
	UserPrompt   string   `json:"userPrompt"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"` // nil uses the server default
	ExpectArray  bool     `json:"expectArray,omitempty"`
}

// Usage reports token counts of a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FunctionResponse is the reply of the chat-completion function. Data holds
// the completion text on success and Error the reason otherwise.
type FunctionResponse struct {
	Success bool   `json:"success,omitempty"`
	Data    string `json:"data,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}
