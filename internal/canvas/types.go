// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package canvas implements the brainstorming workflow state machine: an
// append-only history of iterations, each an ordered chain of typed panels,
// plus the layout and connector geometry drawn between them.
package canvas

import (
	"encoding/json"
	"errors"
	"time"
)

// PanelType identifies one step of the brainstorming loop.
type PanelType string

const (
	PanelContextInput     PanelType = "context-input"
	PanelSchemaEditing    PanelType = "schema-editing"
	PanelIdeaGeneration   PanelType = "idea-generation"
	PanelRanking          PanelType = "ranking"
	PanelSchemaRefinement PanelType = "schema-refinement"
)

// Sequence is the order panels are visited within one pass of the loop.
var Sequence = []PanelType{
	PanelContextInput,
	PanelSchemaEditing,
	PanelIdeaGeneration,
	PanelRanking,
	PanelSchemaRefinement,
}

// Valid reports whether t is a known panel type.
func (t PanelType) Valid() bool {
	for _, s := range Sequence {
		if s == t {
			return true
		}
	}
	return false
}

// ConnectionType distinguishes in-iteration edges from loop-back edges.
type ConnectionType string

const (
	ConnectionWorkflow      ConnectionType = "workflow"
	ConnectionIterationLoop ConnectionType = "iteration-loop"
)

// Panel geometry shared by every panel.
const (
	PanelWidth  = 400.0
	PanelHeight = 300.0
	PanelMargin = 50.0

	// PanelGap is the horizontal space between a panel and its successor.
	PanelGap = 100.0

	// BoundsBuffer pads the computed canvas bounds on every side.
	BoundsBuffer = 300.0

	MinScale = 0.3
	MaxScale = 2.0
)

// Errors returned by state transitions.
var (
	ErrPanelNotFound  = errors.New("panel not found")
	ErrPanelNotActive = errors.New("panel is not the active panel")
)

// Position is a point in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p shifted by (dx, dy).
func (p Position) Add(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside or on the edge of r.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Panel is one workflow step placed on the canvas.
type Panel struct {
	ID        string          `json:"id"`
	Type      PanelType       `json:"type"`
	Iteration int             `json:"iteration"`
	Position  Position        `json:"position"`
	Active    bool            `json:"isActive"`
	Completed bool            `json:"isCompleted"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Rect returns the panel's footprint.
func (p *Panel) Rect() Rect {
	return Rect{X: p.Position.X, Y: p.Position.Y, Width: PanelWidth, Height: PanelHeight}
}

// Decode unmarshals the panel's data into v.
func (p *Panel) Decode(v interface{}) error {
	if len(p.Data) == 0 {
		return errors.New("panel has no data")
	}
	return json.Unmarshal(p.Data, v)
}

// Iteration groups the panels produced by one pass through the loop.
type Iteration struct {
	Number    int             `json:"number"`
	PanelIDs  []string        `json:"panelIds"`
	Schema    json.RawMessage `json:"schema,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
}

// Connection is a directed edge between two panels.
type Connection struct {
	ID            string         `json:"id"`
	From          string         `json:"fromPanelId"`
	To            string         `json:"toPanelId"`
	Type          ConnectionType `json:"type"`
	FromPoint     Position       `json:"fromPoint"`
	ToPoint       Position       `json:"toPoint"`
	IterationFrom int            `json:"iterationFrom"`
	IterationTo   int            `json:"iterationTo"`
}

// Touches reports whether the connection has panelID as an endpoint.
func (c *Connection) Touches(panelID string) bool {
	return c.From == panelID || c.To == panelID
}

// Bounds is the extent of the canvas content.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Snapshot is the serializable state of a canvas.
type Snapshot struct {
	Panels           []Panel      `json:"panels"`
	Iterations       []Iteration  `json:"iterations"`
	Connections      []Connection `json:"connections"`
	CurrentIteration int          `json:"currentIteration"`
	ActivePanelID    string       `json:"activePanelId"`
	Scale            float64      `json:"scale"`
	Offset           Position     `json:"offset"`
}
