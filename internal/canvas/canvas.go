// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package canvas

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Canvas owns the panels, iterations and connections of one brainstorming
// session. It is not safe for concurrent use; callers serialize access.
type Canvas struct {
	panels      map[string]*Panel
	order       []string
	iterations  []*Iteration
	connections []*Connection

	current  int
	activeID string
	scale    float64
	offset   Position
	drag     *dragState

	now    func() time.Time
	suffix func() string
}

type dragState struct {
	panelID      string
	pointerStart Position
	panelStart   Position
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithClock overrides the time source used for panel ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Canvas) {
		c.now = now
	}
}

// WithIDSuffix overrides the random suffix appended to panel ids.
func WithIDSuffix(fn func() string) Option {
	return func(c *Canvas) {
		c.suffix = fn
	}
}

// New creates a canvas holding a single active context-input panel in
// iteration 0.
func New(opts ...Option) *Canvas {
	c := newEmpty(opts...)

	c.iterations = append(c.iterations, &Iteration{Number: 0, StartedAt: c.now()})
	p := c.addPanel(PanelContextInput, 0, IterationPosition(PanelContextInput, 0), nil)
	p.Active = true
	c.activeID = p.ID

	return c
}

func newEmpty(opts ...Option) *Canvas {
	c := &Canvas{
		panels: make(map[string]*Panel),
		scale:  1,
		now:    time.Now,
		suffix: func() string { return uuid.New().String()[:9] },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore rebuilds a canvas from a snapshot.
func Restore(s Snapshot, opts ...Option) *Canvas {
	c := newEmpty(opts...)

	for i := range s.Panels {
		p := s.Panels[i]
		c.panels[p.ID] = &p
		c.order = append(c.order, p.ID)
	}
	for i := range s.Iterations {
		it := s.Iterations[i]
		it.PanelIDs = append([]string(nil), it.PanelIDs...)
		c.iterations = append(c.iterations, &it)
	}
	for i := range s.Connections {
		conn := s.Connections[i]
		c.connections = append(c.connections, &conn)
	}

	c.current = s.CurrentIteration
	c.activeID = s.ActivePanelID
	c.offset = s.Offset
	c.scale = s.Scale
	if c.scale == 0 {
		c.scale = 1
	}

	return c
}

// Snapshot returns a deep copy of the canvas state.
func (c *Canvas) Snapshot() Snapshot {
	s := Snapshot{
		Panels:           c.Panels(),
		Iterations:       c.Iterations(),
		Connections:      c.Connections(),
		CurrentIteration: c.current,
		ActivePanelID:    c.activeID,
		Scale:            c.scale,
		Offset:           c.offset,
	}
	return s
}

// newPanelID formats ids as <type>-iter-<n>-<unixmillis>-<suffix>.
func (c *Canvas) newPanelID(t PanelType, iteration int) string {
	return fmt.Sprintf("%s-iter-%d-%d-%s", t, iteration, c.now().UnixMilli(), c.suffix())
}

func (c *Canvas) addPanel(t PanelType, iteration int, pos Position, data json.RawMessage) *Panel {
	p := &Panel{
		ID:        c.newPanelID(t, iteration),
		Type:      t,
		Iteration: iteration,
		Position:  pos,
		Data:      data,
		CreatedAt: c.now(),
	}
	c.panels[p.ID] = p
	c.order = append(c.order, p.ID)

	it := c.iteration(iteration)
	it.PanelIDs = append(it.PanelIDs, p.ID)
	return p
}

func (c *Canvas) iteration(n int) *Iteration {
	for _, it := range c.iterations {
		if it.Number == n {
			return it
		}
	}
	it := &Iteration{Number: n, StartedAt: c.now()}
	c.iterations = append(c.iterations, it)
	return it
}

func (c *Canvas) connect(from, to *Panel, t ConnectionType) *Connection {
	fp, tp := ConnectionPoints(from.Position, to.Position)
	conn := &Connection{
		ID:            "conn-" + from.ID + "-" + to.ID,
		From:          from.ID,
		To:            to.ID,
		Type:          t,
		FromPoint:     fp,
		ToPoint:       tp,
		IterationFrom: from.Iteration,
		IterationTo:   to.Iteration,
	}
	c.connections = append(c.connections, conn)
	return conn
}

// Advance completes the active panel with the step's result and creates the
// next panel. Completing a schema-refinement panel starts a new iteration whose
// first panel is a schema-editing panel carrying the refined schema and the
// refinement panel's data.
func (c *Canvas) Advance(panelID string, data json.RawMessage) (*Panel, error) {
	cur, ok := c.panels[panelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, panelID)
	}
	if panelID != c.activeID || cur.Completed {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotActive, panelID)
	}

	cur.Completed = true
	cur.Active = false

	var next *Panel
	if t, ok := NextPanelType(cur.Type); ok {
		next = c.addPanel(t, cur.Iteration, NextPanelPosition(cur.Position), data)
		c.connect(cur, next, ConnectionWorkflow)
	} else {
		next = c.startIteration(cur, data)
	}

	next.Active = true
	c.activeID = next.ID
	return next, nil
}

func (c *Canvas) startIteration(refinement *Panel, schema json.RawMessage) *Panel {
	n := c.current + 1

	payload, _ := json.Marshal(struct {
		Schema       json.RawMessage `json:"schema,omitempty"`
		PreviousData json.RawMessage `json:"previousData,omitempty"`
	}{Schema: schema, PreviousData: refinement.Data})

	c.iterations = append(c.iterations, &Iteration{Number: n, Schema: schema, StartedAt: c.now()})
	next := c.addPanel(PanelSchemaEditing, n, loopPosition(refinement.Position, n), payload)
	c.connect(refinement, next, ConnectionIterationLoop)
	c.current = n

	return next
}

// SetIterationSchema records the schema the current iteration works from.
func (c *Canvas) SetIterationSchema(schema json.RawMessage) {
	if it := c.iteration(c.current); it != nil {
		it.Schema = schema
	}
}

// BeginDrag records the pointer and panel positions at the start of a drag.
// It returns false if the panel does not exist.
func (c *Canvas) BeginDrag(panelID string, pointer Position) bool {
	p, ok := c.panels[panelID]
	if !ok {
		return false
	}
	c.drag = &dragState{
		panelID:      panelID,
		pointerStart: pointer,
		panelStart:   p.Position,
	}
	return true
}

// DragTo moves the dragged panel by the pointer delta divided by the canvas
// scale and recomputes the connections that touch it.
func (c *Canvas) DragTo(pointer Position) bool {
	if c.drag == nil {
		return false
	}
	p, ok := c.panels[c.drag.panelID]
	if !ok {
		return false
	}

	dx := (pointer.X - c.drag.pointerStart.X) / c.scale
	dy := (pointer.Y - c.drag.pointerStart.Y) / c.scale
	p.Position = c.drag.panelStart.Add(dx, dy)

	c.refreshConnections(p.ID)
	return true
}

// EndDrag clears the drag state.
func (c *Canvas) EndDrag() {
	c.drag = nil
}

// Dragging returns the id of the panel being dragged, if any.
func (c *Canvas) Dragging() (string, bool) {
	if c.drag == nil {
		return "", false
	}
	return c.drag.panelID, true
}

// Move drags a panel by a pointer delta of (dx, dy) in screen space.
func (c *Canvas) Move(panelID string, dx, dy float64) bool {
	if !c.BeginDrag(panelID, Position{}) {
		return false
	}
	defer c.EndDrag()
	return c.DragTo(Position{X: dx, Y: dy})
}

func (c *Canvas) refreshConnections(panelID string) {
	for _, conn := range c.connections {
		if !conn.Touches(panelID) {
			continue
		}
		from, to := c.panels[conn.From], c.panels[conn.To]
		if from == nil || to == nil {
			continue
		}
		conn.FromPoint, conn.ToPoint = ConnectionPoints(from.Position, to.Position)
	}
}

// SetScale sets the zoom factor, clamped to [MinScale, MaxScale].
func (c *Canvas) SetScale(s float64) float64 {
	c.scale = math.Max(MinScale, math.Min(MaxScale, s))
	return c.scale
}

// Scale returns the current zoom factor.
func (c *Canvas) Scale() float64 {
	return c.scale
}

// Pan shifts the view offset.
func (c *Canvas) Pan(dx, dy float64) Position {
	c.offset = c.offset.Add(dx, dy)
	return c.offset
}

// Panel returns a copy of the panel with the given id.
func (c *Canvas) Panel(id string) (Panel, bool) {
	p, ok := c.panels[id]
	if !ok {
		return Panel{}, false
	}
	return *p, true
}

// ActivePanel returns the panel awaiting completion.
func (c *Canvas) ActivePanel() (Panel, bool) {
	return c.Panel(c.activeID)
}

// CurrentIteration returns the number of the newest iteration.
func (c *Canvas) CurrentIteration() int {
	return c.current
}

// Panels returns copies of all panels in creation order.
func (c *Canvas) Panels() []Panel {
	out := make([]Panel, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.panels[id])
	}
	return out
}

// Iterations returns copies of all iterations.
func (c *Canvas) Iterations() []Iteration {
	out := make([]Iteration, 0, len(c.iterations))
	for _, it := range c.iterations {
		cp := *it
		cp.PanelIDs = append([]string(nil), it.PanelIDs...)
		out = append(out, cp)
	}
	return out
}

// Connections returns copies of all connections in creation order.
func (c *Canvas) Connections() []Connection {
	out := make([]Connection, 0, len(c.connections))
	for _, conn := range c.connections {
		out = append(out, *conn)
	}
	return out
}

// ConnectionsFor returns the connections with panelID as an endpoint.
func (c *Canvas) ConnectionsFor(panelID string) []Connection {
	var out []Connection
	for _, conn := range c.connections {
		if conn.Touches(panelID) {
			out = append(out, *conn)
		}
	}
	return out
}

// Bounds returns the padded extent of all panels.
func (c *Canvas) Bounds() Bounds {
	return ComputeBounds(c.Panels())
}

// Routes returns the connector path for every connection.
func (c *Canvas) Routes() []Path {
	panels := c.Panels()
	paths := make([]Path, 0, len(c.connections))
	for i, conn := range c.connections {
		paths = append(paths, Route(*conn, panels, i+1))
	}
	return paths
}
