// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ideation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/ideaforge/internal/canvas"
	"github.com/wingedpig/ideaforge/internal/events"
	"github.com/wingedpig/ideaforge/internal/store"
	"github.com/wingedpig/ideaforge/internal/watcher"
)

var (
	// ErrWrongStep is returned when an operation does not apply to the
	// session's active panel.
	ErrWrongStep = errors.New("session is not at this step")

	// ErrBusy is returned while a model call for the session is running.
	ErrBusy = errors.New("a model call is already running for this session")
)

// Repository is the persistence the manager needs.
type Repository interface {
	SaveSession(ctx context.Context, sess store.Session) (string, error)
	LoadSession(ctx context.Context, id string) (*store.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]store.Session, error)
	SaveSchemaVersion(ctx context.Context, sessionID string, schema json.RawMessage, version int) (string, error)
	ListSchemaVersions(ctx context.Context, sessionID string) ([]store.SchemaVersion, error)
	SaveIdeas(ctx context.Context, sessionID, schemaVersionID string, ideas []store.Idea) ([]store.Idea, error)
	ListSessionIdeas(ctx context.Context, sessionID string) ([]store.Idea, error)
	UpdateIdeaRankings(ctx context.Context, rankings map[string]int) error
	SaveCanvas(ctx context.Context, sessionID string, state json.RawMessage) error
	LoadCanvas(ctx context.Context, sessionID string) (*store.CanvasState, error)
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Generator *Generator
	Store     Repository
	Events    events.Publisher
	Logger    *zap.Logger

	// AutosaveDelay debounces snapshot writes after drags, zooms and
	// single ratings.
	AutosaveDelay time.Duration

	CanvasOptions []canvas.Option

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Manager owns the live workspaces, one per session.
type Manager struct {
	gen        *Generator
	repo       Repository
	events     events.Publisher
	logger     *zap.Logger
	autosave   *watcher.Debouncer
	canvasOpts []canvas.Option
	now        func() time.Time

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// workspace is the in-memory state of one session. mu guards every field.
type workspace struct {
	mu      sync.Mutex
	session store.Session
	canvas  *canvas.Canvas
	state   workflowState
	busy    bool

	// lastUsed is guarded by Manager.mu.
	lastUsed time.Time
}

// workflowState is what the workspace tracks beside the canvas.
type workflowState struct {
	Schema          Schema        `json:"schema"`
	SchemaVersion   int           `json:"schemaVersion"`
	SchemaVersionID string        `json:"schemaVersionId"`
	Ideas           []Idea        `json:"ideas,omitempty"`
	IdeaIDs         []string      `json:"ideaIds,omitempty"`
	Ranking         *RankingSheet `json:"ranking,omitempty"`
}

// snapshot is the document stored in the canvases table.
type snapshot struct {
	Canvas   canvas.Snapshot `json:"canvas"`
	Workflow workflowState   `json:"workflow"`
}

// NewManager creates a manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Events == nil {
		cfg.Events = events.Nop{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		gen:        cfg.Generator,
		repo:       cfg.Store,
		events:     cfg.Events,
		logger:     cfg.Logger.Named("workspace"),
		autosave:   watcher.NewDebouncer(cfg.AutosaveDelay),
		canvasOpts: cfg.CanvasOptions,
		now:        cfg.Now,
		workspaces: make(map[string]*workspace),
	}
}

// View is the workflow state of a session as shown to clients.
type View struct {
	Session       store.Session    `json:"session"`
	Step          canvas.PanelType `json:"step"`
	ActivePanelID string           `json:"activePanelId"`
	Iteration     int              `json:"iteration"`
	Schema        Schema           `json:"schema"`
	SchemaVersion int              `json:"schemaVersion"`
	Ideas         []Idea           `json:"ideas,omitempty"`
	Ranking       *RankingStatus   `json:"ranking,omitempty"`
	Busy          bool             `json:"busy"`
}

// RankingStatus reports progress through the ranking step.
type RankingStatus struct {
	Rankings  map[string]int `json:"rankings"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Ready     bool           `json:"ready"`
	Insights  Insights       `json:"insights"`
}

// CanvasView is the canvas of a session with derived geometry.
type CanvasView struct {
	Canvas canvas.Snapshot `json:"canvas"`
	Bounds canvas.Bounds   `json:"bounds"`
	Paths  []canvas.Path   `json:"paths"`
}

// SessionHistory is everything persisted for a session.
type SessionHistory struct {
	Session        store.Session         `json:"session"`
	SchemaVersions []store.SchemaVersion `json:"schemaVersions"`
	Ideas          []store.Idea          `json:"ideas"`
}

func (ws *workspace) view() *View {
	v := &View{
		Session:       ws.session,
		Iteration:     ws.canvas.CurrentIteration(),
		Schema:        ws.state.Schema,
		SchemaVersion: ws.state.SchemaVersion,
		Ideas:         ws.state.Ideas,
		Busy:          ws.busy,
	}
	if p, ok := ws.canvas.ActivePanel(); ok {
		v.Step = p.Type
		v.ActivePanelID = p.ID
	}
	if r := ws.state.Ranking; r != nil {
		values := make(map[string]int, len(r.Values))
		for k, val := range r.Values {
			values[k] = val
		}
		v.Ranking = &RankingStatus{
			Rankings:  values,
			Completed: r.Completed(),
			Total:     r.Count,
			Ready:     r.Ready(),
			Insights:  r.Insights(),
		}
	}
	return v
}

// expect returns the active panel if it has type t and no model call is
// running.
func (ws *workspace) expect(t canvas.PanelType) (canvas.Panel, error) {
	if ws.busy {
		return canvas.Panel{}, ErrBusy
	}
	p, ok := ws.canvas.ActivePanel()
	if !ok || p.Type != t {
		return canvas.Panel{}, fmt.Errorf("%w: at %s, not %s", ErrWrongStep, p.Type, t)
	}
	return p, nil
}

func (ws *workspace) encode() (json.RawMessage, error) {
	return json.Marshal(snapshot{Canvas: ws.canvas.Snapshot(), Workflow: ws.state})
}

// Start validates the input, asks the model for a first schema, stores the
// session with schema version 1 and completes the context-input panel.
func (m *Manager) Start(ctx context.Context, userID string, in ContextInput) (*View, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	schema, err := m.gen.InitialSchema(ctx, in)
	if err != nil {
		m.gatewayFailed(ctx, "", userID, "initial_schema", err)
		return nil, err
	}

	id, err := m.repo.SaveSession(ctx, store.Session{
		UserID:      userID,
		Context:     in.Context,
		Purpose:     in.Purpose,
		Preferences: in.Preferences,
	})
	if err != nil {
		return nil, err
	}
	versionID, err := m.repo.SaveSchemaVersion(ctx, id, schema.JSON(), 1)
	if err != nil {
		return nil, err
	}
	sess, err := m.repo.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	cv := canvas.New(m.canvasOpts...)
	first, _ := cv.ActivePanel()
	next, err := cv.Advance(first.ID, marshal(map[string]any{"schema": schema, "sessionData": in}))
	if err != nil {
		return nil, err
	}

	ws := &workspace{
		session: *sess,
		canvas:  cv,
		state:   workflowState{Schema: schema, SchemaVersion: 1, SchemaVersionID: versionID},
	}
	data, err := ws.encode()
	if err != nil {
		return nil, err
	}
	if err := m.repo.SaveCanvas(ctx, id, data); err != nil {
		return nil, err
	}

	m.mu.Lock()
	ws.lastUsed = m.now()
	m.workspaces[id] = ws
	m.mu.Unlock()

	m.logger.Info("session started", zap.String("session", id), zap.String("user", userID))
	m.publish(ctx, ws, events.SessionStarted, map[string]any{"purpose": in.Purpose})
	m.panelCreated(ctx, ws, next)
	return ws.view(), nil
}

// ConfirmSchema accepts the user's edited schema, storing it as a new
// version when it differs, and completes the schema-editing panel.
func (m *Manager) ConfirmSchema(ctx context.Context, userID, sessionID string, schema Schema) (*View, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	panel, err := ws.expect(canvas.PanelSchemaEditing)
	if err != nil {
		return nil, err
	}

	if !schema.Equal(ws.state.Schema) {
		version := ws.state.SchemaVersion + 1
		id, err := m.repo.SaveSchemaVersion(ctx, sessionID, schema.JSON(), version)
		if err != nil {
			return nil, err
		}
		ws.state.Schema = schema
		ws.state.SchemaVersion = version
		ws.state.SchemaVersionID = id
	}

	ws.canvas.SetIterationSchema(schema.JSON())
	next, err := ws.canvas.Advance(panel.ID, marshal(map[string]any{"schema": schema}))
	if err != nil {
		return nil, err
	}

	m.save(ctx, ws)
	m.publish(ctx, ws, events.SchemaConfirmed, map[string]any{"version": ws.state.SchemaVersion})
	m.panelCreated(ctx, ws, next)
	return ws.view(), nil
}

// GenerateIdeas generates and evaluates ideas for the current schema,
// stores the evaluated ideas and completes the idea-generation panel. The
// workspace stays usable for canvas changes while the model runs.
func (m *Manager) GenerateIdeas(ctx context.Context, userID, sessionID string) (*View, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	panel, err := ws.expect(canvas.PanelIdeaGeneration)
	if err != nil {
		ws.mu.Unlock()
		return nil, err
	}
	ws.busy = true
	schema := ws.state.Schema
	versionID := ws.state.SchemaVersionID
	ws.mu.Unlock()

	ideas, err := m.gen.GenerateIdeas(ctx, schema)
	if err == nil {
		ideas, err = m.gen.EvaluateIdeas(ctx, schema, ideas)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.busy = false

	if err != nil {
		m.gatewayFailed(ctx, sessionID, userID, "idea_generation", err)
		return nil, err
	}

	rows := make([]store.Idea, len(ideas))
	for i, idea := range ideas {
		rows[i] = store.Idea{
			Idea:            idea.Idea,
			Description:     idea.Description,
			EvaluationScore: string(idea.Evaluation),
		}
	}
	saved, err := m.repo.SaveIdeas(ctx, sessionID, versionID, rows)
	if err != nil {
		return nil, err
	}

	next, err := ws.canvas.Advance(panel.ID, marshal(map[string]any{"ideas": ideas}))
	if err != nil {
		return nil, err
	}

	ws.state.Ideas = ideas
	ws.state.IdeaIDs = make([]string, len(saved))
	for i, row := range saved {
		ws.state.IdeaIDs[i] = row.ID
	}
	ws.state.Ranking = NewRankingSheet(len(ideas))

	m.save(ctx, ws)
	m.publish(ctx, ws, events.IdeasGenerated, map[string]any{"count": len(ideas)})
	m.panelCreated(ctx, ws, next)
	return ws.view(), nil
}

// Rate records one ranking without completing the ranking panel.
func (m *Manager) Rate(ctx context.Context, userID, sessionID string, index, value int) (*View, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if _, err := ws.expect(canvas.PanelRanking); err != nil {
		return nil, err
	}
	if err := ws.state.Ranking.Rate(index, value); err != nil {
		return nil, err
	}

	m.saveLater(ws)
	m.publish(ctx, ws, events.RankingUpdated, map[string]any{
		"key":       RankingKey(index),
		"value":     value,
		"completed": ws.state.Ranking.Completed(),
		"ready":     ws.state.Ranking.Ready(),
	})
	return ws.view(), nil
}

// SubmitRankings applies values, keyed idea-{index}, on top of rankings
// already recorded. Once every idea is ranked the rankings are stored
// against the persisted idea ids and the ranking panel completes;
// otherwise ErrRankingIncomplete is returned and nothing changes.
func (m *Manager) SubmitRankings(ctx context.Context, userID, sessionID string, values map[string]int) (*View, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	panel, err := ws.expect(canvas.PanelRanking)
	if err != nil {
		return nil, err
	}

	sheet := ws.state.Ranking.Clone()
	for key, value := range values {
		index, ok := ParseRankingKey(key)
		if !ok {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidRanking, key)
		}
		if err := sheet.Rate(index, value); err != nil {
			return nil, err
		}
	}
	if !sheet.Ready() {
		return nil, fmt.Errorf("%w: %d of %d ranked", ErrRankingIncomplete, sheet.Completed(), sheet.Count)
	}

	byID := make(map[string]int, len(ws.state.IdeaIDs))
	for i, id := range ws.state.IdeaIDs {
		byID[id] = sheet.Values[RankingKey(i)]
	}
	if err := m.repo.UpdateIdeaRankings(ctx, byID); err != nil {
		return nil, err
	}

	next, err := ws.canvas.Advance(panel.ID, marshal(map[string]any{
		"rankings": sheet.Values,
		"schema":   ws.state.Schema,
		"ideas":    ws.state.Ideas,
	}))
	if err != nil {
		return nil, err
	}
	ws.state.Ranking = sheet

	m.save(ctx, ws)
	m.publish(ctx, ws, events.RankingCompleted, map[string]any{"insights": sheet.Insights()})
	m.panelCreated(ctx, ws, next)
	return ws.view(), nil
}

// Refine asks the model to refine the schema from the rankings, stores it
// as the next schema version and completes the schema-refinement panel,
// which starts a new iteration.
func (m *Manager) Refine(ctx context.Context, userID, sessionID string) (*View, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	panel, err := ws.expect(canvas.PanelSchemaRefinement)
	if err != nil {
		ws.mu.Unlock()
		return nil, err
	}
	ws.busy = true
	schema := ws.state.Schema
	rankings := ws.state.Ranking.Rankings(ws.state.Ideas)
	ws.mu.Unlock()

	refined, err := m.gen.RefineSchema(ctx, schema, rankings)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.busy = false

	if err != nil {
		m.gatewayFailed(ctx, sessionID, userID, "refine_schema", err)
		return nil, err
	}

	version := ws.state.SchemaVersion + 1
	versionID, err := m.repo.SaveSchemaVersion(ctx, sessionID, refined.JSON(), version)
	if err != nil {
		return nil, err
	}

	next, err := ws.canvas.Advance(panel.ID, refined.JSON())
	if err != nil {
		return nil, err
	}
	ws.state = workflowState{Schema: refined, SchemaVersion: version, SchemaVersionID: versionID}

	m.save(ctx, ws)
	m.publish(ctx, ws, events.SchemaRefined, map[string]any{"version": version})
	m.publish(ctx, ws, events.IterationStarted, map[string]any{"iteration": next.Iteration})
	m.panelCreated(ctx, ws, next)
	return ws.view(), nil
}

// Get returns the workflow state of a session.
func (m *Manager) Get(ctx context.Context, userID, sessionID string) (*View, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.view(), nil
}

// List returns a user's sessions, newest first.
func (m *Manager) List(ctx context.Context, userID string) ([]store.Session, error) {
	return m.repo.ListUserSessions(ctx, userID)
}

// Canvas returns the canvas of a session with bounds and connector paths.
func (m *Manager) Canvas(ctx context.Context, userID, sessionID string) (*CanvasView, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return &CanvasView{
		Canvas: ws.canvas.Snapshot(),
		Bounds: ws.canvas.Bounds(),
		Paths:  ws.canvas.Routes(),
	}, nil
}

// Move drags a panel by a screen-space delta. The stored snapshot is
// updated after the autosave delay.
func (m *Manager) Move(ctx context.Context, userID, sessionID, panelID string, dx, dy float64) (canvas.Panel, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return canvas.Panel{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.canvas.Move(panelID, dx, dy) {
		return canvas.Panel{}, fmt.Errorf("%w: %s", canvas.ErrPanelNotFound, panelID)
	}
	p, _ := ws.canvas.Panel(panelID)

	m.saveLater(ws)
	m.publish(ctx, ws, events.PanelMoved, map[string]any{
		"panelId": p.ID,
		"x":       p.Position.X,
		"y":       p.Position.Y,
	})
	return p, nil
}

// SetScale sets the canvas zoom and returns the clamped value.
func (m *Manager) SetScale(ctx context.Context, userID, sessionID string, scale float64) (float64, error) {
	ws, err := m.load(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	got := ws.canvas.SetScale(scale)
	m.saveLater(ws)
	m.publish(ctx, ws, events.CanvasScaled, map[string]any{"scale": got})
	return got, nil
}

// History returns the stored schema versions and ideas of a session.
func (m *Manager) History(ctx context.Context, userID, sessionID string) (*SessionHistory, error) {
	sess, err := m.repo.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if userID != "" && sess.UserID != userID {
		return nil, store.ErrNotFound
	}

	h := &SessionHistory{Session: *sess}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		h.SchemaVersions, err = m.repo.ListSchemaVersions(gctx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		h.Ideas, err = m.repo.ListSessionIdeas(gctx, sessionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return h, nil
}

// Evict writes any pending snapshot and drops the session from memory. The
// next access restores it from the store.
func (m *Manager) Evict(sessionID string) {
	m.autosave.Flush(sessionID)
	m.mu.Lock()
	delete(m.workspaces, sessionID)
	m.mu.Unlock()
}

// EvictIdle evicts workspaces unused for longer than maxIdle and returns how
// many were dropped. Workspaces with a model call running or another
// operation in progress are kept.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []string
	for id, ws := range m.workspaces {
		if ws.lastUsed.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, id := range idle {
		m.autosave.Flush(id)

		m.mu.Lock()
		ws, ok := m.workspaces[id]
		if ok && ws.lastUsed.Before(cutoff) && ws.mu.TryLock() {
			if !ws.busy {
				delete(m.workspaces, id)
				evicted++
			}
			ws.mu.Unlock()
		}
		m.mu.Unlock()
	}

	if evicted > 0 {
		m.logger.Debug("idle workspaces evicted", zap.Int("count", evicted))
	}
	return evicted
}

// Resident returns the number of workspaces held in memory.
func (m *Manager) Resident() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Close writes every pending snapshot.
func (m *Manager) Close() {
	m.autosave.FlushAll()
	m.autosave.Stop()
}

func (m *Manager) load(ctx context.Context, userID, sessionID string) (*workspace, error) {
	m.mu.Lock()
	ws, ok := m.workspaces[sessionID]
	if ok {
		ws.lastUsed = m.now()
	}
	m.mu.Unlock()

	if !ok {
		restored, err := m.restore(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if ws, ok = m.workspaces[sessionID]; !ok {
			ws = restored
			m.workspaces[sessionID] = ws
		}
		ws.lastUsed = m.now()
		m.mu.Unlock()
	}

	if userID != "" && ws.session.UserID != userID {
		return nil, store.ErrNotFound
	}
	return ws, nil
}

func (m *Manager) restore(ctx context.Context, sessionID string) (*workspace, error) {
	sess, err := m.repo.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	stored, err := m.repo.LoadCanvas(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s canvas: %w", sessionID, err)
	}

	var snap snapshot
	if err := json.Unmarshal(stored.State, &snap); err != nil {
		return nil, fmt.Errorf("session %s canvas: %w", sessionID, err)
	}

	m.logger.Debug("workspace restored", zap.String("session", sessionID))
	return &workspace{
		session: *sess,
		canvas:  canvas.Restore(snap.Canvas, m.canvasOpts...),
		state:   snap.Workflow,
	}, nil
}

// save writes the snapshot now. The caller holds ws.mu. A failed write is
// retried by the autosave.
func (m *Manager) save(ctx context.Context, ws *workspace) {
	m.autosave.Cancel(ws.session.ID)

	data, err := ws.encode()
	if err == nil {
		err = m.repo.SaveCanvas(ctx, ws.session.ID, data)
	}
	if err != nil {
		m.logger.Warn("snapshot save failed", zap.String("session", ws.session.ID), zap.Error(err))
		m.saveLater(ws)
	}
}

// saveLater schedules a snapshot write after the autosave delay.
func (m *Manager) saveLater(ws *workspace) {
	id := ws.session.ID
	m.autosave.Debounce(id, func() {
		ws.mu.Lock()
		data, err := ws.encode()
		ws.mu.Unlock()

		if err == nil {
			err = m.repo.SaveCanvas(context.Background(), id, data)
		}
		if err != nil {
			m.logger.Error("autosave failed", zap.String("session", id), zap.Error(err))
		}
	})
}

func (m *Manager) publish(ctx context.Context, ws *workspace, typ string, payload map[string]any) {
	err := m.events.Publish(ctx, events.Event{
		Type:    typ,
		Session: ws.session.ID,
		User:    ws.session.UserID,
		Payload: payload,
	})
	if err != nil && !errors.Is(err, events.ErrBusClosed) {
		m.logger.Warn("publish failed", zap.String("type", typ), zap.Error(err))
	}
}

func (m *Manager) panelCreated(ctx context.Context, ws *workspace, p *canvas.Panel) {
	m.publish(ctx, ws, events.PanelCreated, map[string]any{
		"panelId":   p.ID,
		"type":      string(p.Type),
		"iteration": p.Iteration,
	})
}

func (m *Manager) gatewayFailed(ctx context.Context, sessionID, userID, step string, err error) {
	m.logger.Error("model step failed",
		zap.String("session", sessionID),
		zap.String("step", step),
		zap.Error(err),
	)
	m.events.Publish(ctx, events.Event{
		Type:    events.GatewayFailed,
		Session: sessionID,
		User:    userID,
		Payload: map[string]any{"step": step, "error": err.Error()},
	})
}

func marshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
