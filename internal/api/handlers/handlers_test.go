// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/wingedpig/ideaforge/internal/api/middleware"
	"github.com/wingedpig/ideaforge/internal/canvas"
	"github.com/wingedpig/ideaforge/internal/chat"
	"github.com/wingedpig/ideaforge/internal/events"
	"github.com/wingedpig/ideaforge/internal/gateway"
	"github.com/wingedpig/ideaforge/internal/ideation"
	"github.com/wingedpig/ideaforge/internal/prompts"
	"github.com/wingedpig/ideaforge/internal/store"
)

// mockWorkspaces records the last call and answers with view or err.
type mockWorkspaces struct {
	view     *ideation.View
	sessions []store.Session
	err      error

	lastUser    string
	lastSession string
	lastInput   ideation.ContextInput
	lastSchema  ideation.Schema
	lastIndex   int
	lastValue   int
	lastValues  map[string]int
	lastPanel   string
	lastDelta   [2]float64
}

func (m *mockWorkspaces) result(userID, sessionID string) (*ideation.View, error) {
	m.lastUser, m.lastSession = userID, sessionID
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *mockWorkspaces) Start(ctx context.Context, userID string, in ideation.ContextInput) (*ideation.View, error) {
	m.lastInput = in
	return m.result(userID, "")
}

func (m *mockWorkspaces) ConfirmSchema(ctx context.Context, userID, sessionID string, schema ideation.Schema) (*ideation.View, error) {
	m.lastSchema = schema
	return m.result(userID, sessionID)
}

func (m *mockWorkspaces) GenerateIdeas(ctx context.Context, userID, sessionID string) (*ideation.View, error) {
	return m.result(userID, sessionID)
}

func (m *mockWorkspaces) Rate(ctx context.Context, userID, sessionID string, index, value int) (*ideation.View, error) {
	m.lastIndex, m.lastValue = index, value
	return m.result(userID, sessionID)
}

func (m *mockWorkspaces) SubmitRankings(ctx context.Context, userID, sessionID string, values map[string]int) (*ideation.View, error) {
	m.lastValues = values
	return m.result(userID, sessionID)
}

func (m *mockWorkspaces) Refine(ctx context.Context, userID, sessionID string) (*ideation.View, error) {
	return m.result(userID, sessionID)
}

func (m *mockWorkspaces) Get(ctx context.Context, userID, sessionID string) (*ideation.View, error) {
	return m.result(userID, sessionID)
}

func (m *mockWorkspaces) List(ctx context.Context, userID string) ([]store.Session, error) {
	m.lastUser = userID
	return m.sessions, m.err
}

func (m *mockWorkspaces) Canvas(ctx context.Context, userID, sessionID string) (*ideation.CanvasView, error) {
	m.lastUser, m.lastSession = userID, sessionID
	if m.err != nil {
		return nil, m.err
	}
	return &ideation.CanvasView{Canvas: canvas.New().Snapshot()}, nil
}

func (m *mockWorkspaces) Move(ctx context.Context, userID, sessionID, panelID string, dx, dy float64) (canvas.Panel, error) {
	m.lastUser, m.lastSession, m.lastPanel = userID, sessionID, panelID
	m.lastDelta = [2]float64{dx, dy}
	if m.err != nil {
		return canvas.Panel{}, m.err
	}
	return canvas.Panel{ID: panelID, Position: canvas.Position{X: dx, Y: dy}}, nil
}

func (m *mockWorkspaces) SetScale(ctx context.Context, userID, sessionID string, scale float64) (float64, error) {
	m.lastUser, m.lastSession = userID, sessionID
	if m.err != nil {
		return 0, m.err
	}
	return min(scale, canvas.MaxScale), nil
}

func (m *mockWorkspaces) History(ctx context.Context, userID, sessionID string) (*ideation.SessionHistory, error) {
	m.lastUser, m.lastSession = userID, sessionID
	if m.err != nil {
		return nil, m.err
	}
	return &ideation.SessionHistory{Session: store.Session{ID: sessionID, UserID: userID}}, nil
}

// request builds a request carrying a user id and mux vars.
func request(method, target, body string, vars map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithUser(req.Context(), "u1"))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestWriteDomainError(t *testing.T) {
	verr := &ideation.ValidationError{}
	verr.Add("context", "is required")

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("start: %w", verr), http.StatusBadRequest, ErrBadRequest},
		{ideation.ErrInvalidSchema, http.StatusBadRequest, ErrBadRequest},
		{fmt.Errorf("%w: idea-9", ideation.ErrInvalidRanking), http.StatusBadRequest, ErrBadRequest},
		{ideation.ErrRankingIncomplete, http.StatusBadRequest, ErrBadRequest},
		{chat.ErrNoMessage, http.StatusBadRequest, ErrBadRequest},
		{store.ErrNotFound, http.StatusNotFound, ErrNotFound},
		{canvas.ErrPanelNotFound, http.StatusNotFound, ErrNotFound},
		{ideation.ErrWrongStep, http.StatusConflict, ErrConflict},
		{ideation.ErrBusy, http.StatusConflict, ErrConflict},
		{chat.ErrTooSoon, http.StatusTooManyRequests, ErrRateLimited},
		{fmt.Errorf("%w after 3 attempts", gateway.ErrExhausted), http.StatusBadGateway, ErrGatewayError},
		{ideation.ErrInvalidIdeas, http.StatusBadGateway, ErrGatewayError},
		{fmt.Errorf("schema generation: %w: invalid schema: missing context", ideation.ErrInvalidReply), http.StatusBadGateway, ErrGatewayError},
		{fmt.Errorf("idea generation: %w", gateway.Permanent(errors.New("openai: API key not configured"))), http.StatusBadGateway, ErrGatewayError},
		{errors.New("disk full"), http.StatusInternalServerError, ErrInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	rec := httptest.NewRecorder()
	WriteDomainError(rec, verr)
	resp := decodeResponse(t, rec)
	assert.Equal(t, map[string]interface{}{"context": "is required"}, resp.Error.Details["fields"])
}

// Failures caused by the model or its provider are gateway errors, not
// client errors, even when the reply parses.
func TestWriteDomainError_ModelFailures(t *testing.T) {
	tmpl, err := prompts.New("", nil)
	require.NoError(t, err)
	input := ideation.ContextInput{Context: "A bakery", Purpose: "More sales", Preferences: "Low budget"}

	tests := []struct {
		name     string
		provider *stubProvider
	}{
		{"incomplete schema", &stubProvider{content: `{"purpose":"p"}`}},
		{"schema of the wrong shape", &stubProvider{content: `["not","a","schema"]`}},
		{"rejected by provider", &stubProvider{err: gateway.Permanent(errors.New("openai: status 401"))}},
		{"never valid JSON", &stubProvider{content: "sorry, no"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := gateway.New(tt.provider, gateway.Config{Retry: gateway.RetryConfig{MaxAttempts: 2}})
			_, err := ideation.NewGenerator(gw, tmpl, nil).InitialSchema(context.Background(), input)
			require.Error(t, err)

			rec := httptest.NewRecorder()
			WriteDomainError(rec, err)
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrGatewayError, resp.Error.Code)
		})
	}
}

func TestSessionHandler_Presets(t *testing.T) {
	h := NewSessionHandler(&mockWorkspaces{})
	rec := httptest.NewRecorder()
	h.Presets(rec, request("GET", "/api/v1/presets", "", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []ideation.Preset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, len(ideation.Presets()))
}

func TestSessionHandler_Create(t *testing.T) {
	ws := &mockWorkspaces{view: &ideation.View{Step: canvas.PanelSchemaEditing}}
	h := NewSessionHandler(ws)

	rec := httptest.NewRecorder()
	h.Create(rec, request("POST", "/api/v1/sessions", `{"context":"A bakery","purpose":"Sell","preferences":"Cheap"}`, nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", ws.lastUser)
	assert.Equal(t, ideation.ContextInput{Context: "A bakery", Purpose: "Sell", Preferences: "Cheap"}, ws.lastInput)
	assert.Contains(t, rec.Body.String(), `"step":"schema-editing"`)
}

func TestSessionHandler_Create_Preset(t *testing.T) {
	ws := &mockWorkspaces{view: &ideation.View{}}
	h := NewSessionHandler(ws)

	rec := httptest.NewRecorder()
	h.Create(rec, request("POST", "/api/v1/sessions", `{"context":"A bakery","preset":"startup-idea"}`, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	preset, _ := ideation.FindPreset("startup-idea")
	assert.Equal(t, preset.Purpose, ws.lastInput.Purpose)
	assert.Equal(t, preset.Preferences(), ws.lastInput.Preferences)

	rec = httptest.NewRecorder()
	h.Create(rec, request("POST", "/api/v1/sessions", `{"context":"A bakery","preset":"nope"}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandler_Create_InvalidJSON(t *testing.T) {
	h := NewSessionHandler(&mockWorkspaces{})
	rec := httptest.NewRecorder()
	h.Create(rec, request("POST", "/api/v1/sessions", `{"context":`, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrBadRequest)
}

func TestSessionHandler_List(t *testing.T) {
	ws := &mockWorkspaces{}
	h := NewSessionHandler(ws)

	rec := httptest.NewRecorder()
	h.List(rec, request("GET", "/api/v1/sessions", "", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestSessionHandler_StepRoutes(t *testing.T) {
	tests := []struct {
		name   string
		call   func(h *SessionHandler, w http.ResponseWriter, r *http.Request)
		body   string
		vars   map[string]string
		verify func(t *testing.T, ws *mockWorkspaces)
	}{
		{
			name: "confirm schema",
			call: (*SessionHandler).ConfirmSchema,
			body: `{"purpose":"p","context":"c","criteria":["a"]}`,
			verify: func(t *testing.T, ws *mockWorkspaces) {
				assert.Equal(t, "p", ws.lastSchema.Purpose)
				assert.Equal(t, ideation.StringList{"a"}, ws.lastSchema.Criteria)
			},
		},
		{name: "generate", call: (*SessionHandler).GenerateIdeas},
		{
			name: "rate",
			call: (*SessionHandler).Rate,
			body: `{"value":7}`,
			vars: map[string]string{"index": "3"},
			verify: func(t *testing.T, ws *mockWorkspaces) {
				assert.Equal(t, 3, ws.lastIndex)
				assert.Equal(t, 7, ws.lastValue)
			},
		},
		{
			name: "submit rankings",
			call: (*SessionHandler).SubmitRankings,
			body: `{"rankings":{"idea-0":4,"idea-1":9}}`,
			verify: func(t *testing.T, ws *mockWorkspaces) {
				assert.Equal(t, map[string]int{"idea-0": 4, "idea-1": 9}, ws.lastValues)
			},
		},
		{name: "refine", call: (*SessionHandler).Refine},
		{name: "get", call: (*SessionHandler).Get},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &mockWorkspaces{view: &ideation.View{Iteration: 1}}
			h := NewSessionHandler(ws)

			vars := map[string]string{"id": "s1"}
			for k, v := range tt.vars {
				vars[k] = v
			}
			rec := httptest.NewRecorder()
			tt.call(h, rec, request("POST", "/", tt.body, vars))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "u1", ws.lastUser)
			assert.Equal(t, "s1", ws.lastSession)
			assert.Contains(t, rec.Body.String(), `"iteration":1`)
			if tt.verify != nil {
				tt.verify(t, ws)
			}
		})
	}
}

func TestSessionHandler_Rate_BadIndex(t *testing.T) {
	h := NewSessionHandler(&mockWorkspaces{})
	rec := httptest.NewRecorder()
	h.Rate(rec, request("PUT", "/", `{"value":3}`, map[string]string{"id": "s1", "index": "first"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandler_Errors(t *testing.T) {
	h := NewSessionHandler(&mockWorkspaces{err: ideation.ErrWrongStep})
	rec := httptest.NewRecorder()
	h.GenerateIdeas(rec, request("POST", "/", "", map[string]string{"id": "s1"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	h = NewSessionHandler(&mockWorkspaces{err: store.ErrNotFound})
	rec = httptest.NewRecorder()
	h.Canvas(rec, request("GET", "/", "", map[string]string{"id": "missing"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.History(rec, request("GET", "/", "", map[string]string{"id": "missing"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_Canvas(t *testing.T) {
	ws := &mockWorkspaces{}
	h := NewSessionHandler(ws)

	rec := httptest.NewRecorder()
	h.Canvas(rec, request("GET", "/", "", map[string]string{"id": "s1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"context-input"`)

	rec = httptest.NewRecorder()
	h.Move(rec, request("POST", "/", `{"dx":12.5,"dy":-4}`, map[string]string{"id": "s1", "panel": "p1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", ws.lastPanel)
	assert.Equal(t, [2]float64{12.5, -4}, ws.lastDelta)

	rec = httptest.NewRecorder()
	h.Scale(rec, request("PUT", "/", `{"scale":5}`, map[string]string{"id": "s1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scale":2`)
}

func TestSessionHandler_History(t *testing.T) {
	h := NewSessionHandler(&mockWorkspaces{})
	rec := httptest.NewRecorder()
	h.History(rec, request("GET", "/", "", map[string]string{"id": "s1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u1"`)
}

type mockAssistant struct {
	reply    *chat.Reply
	records  []store.ChatRecord
	err      error
	messages []gateway.Message
}

func (m *mockAssistant) Send(ctx context.Context, userID string, messages []gateway.Message) (*chat.Reply, error) {
	m.messages = messages
	return m.reply, m.err
}

func (m *mockAssistant) History(ctx context.Context, userID string) ([]store.ChatRecord, error) {
	return m.records, m.err
}

func TestChatHandler(t *testing.T) {
	a := &mockAssistant{reply: &chat.Reply{Message: gateway.Message{Role: gateway.RoleAssistant, Content: "Try a loyalty card."}}}
	h := NewChatHandler(a)

	rec := httptest.NewRecorder()
	h.Send(rec, request("POST", "/api/v1/chat", `{"messages":[{"role":"user","content":"ideas?"}]}`, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loyalty card")
	assert.Equal(t, []gateway.Message{{Role: gateway.RoleUser, Content: "ideas?"}}, a.messages)

	rec = httptest.NewRecorder()
	h.History(rec, request("GET", "/api/v1/chat/history", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestChatHandler_TooSoon(t *testing.T) {
	h := NewChatHandler(&mockAssistant{err: chat.ErrTooSoon})
	rec := httptest.NewRecorder()
	h.Send(rec, request("POST", "/api/v1/chat", `{"messages":[{"role":"user","content":"again"}]}`, nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrRateLimited)
}

type stubProvider struct {
	content string
	err     error
	req     gateway.Request
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req gateway.Request) (*gateway.Completion, error) {
	p.req = req
	if p.err != nil {
		return nil, p.err
	}
	return &gateway.Completion{Content: p.content, Model: req.Model}, nil
}

func TestFunctionHandler(t *testing.T) {
	p := &stubProvider{content: `{"ok":true}`}
	h := NewFunctionHandler(p, "gpt-4o-mini", nil)

	rec := httptest.NewRecorder()
	h.ChatCompletion(rec, httptest.NewRequest("POST", "/api/v1/functions/chat-completion",
		bytes.NewBufferString(`{"systemPrompt":"s","userPrompt":"u","expectArray":true}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp gateway.FunctionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, `{"ok":true}`, resp.Data)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.True(t, p.req.ExpectArray)
}

func TestFunctionHandler_Errors(t *testing.T) {
	h := NewFunctionHandler(&stubProvider{err: errors.New("upstream down")}, "m", nil)

	rec := httptest.NewRecorder()
	h.ChatCompletion(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"userPrompt":"u"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream down")

	rec = httptest.NewRecorder()
	h.ChatCompletion(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ChatCompletion(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newTestBus(t *testing.T) *events.MemoryBus {
	t.Helper()
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	t.Cleanup(func() { bus.Close() })
	return bus
}

func TestEventHandler_History(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.SessionStarted, Session: "s1", User: "u1"}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.PanelMoved, Session: "s1", User: "u1"}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.SessionStarted, Session: "s2", User: "u2"}))

	h := NewEventHandler(bus)

	list := func(query string) []events.Event {
		rec := httptest.NewRecorder()
		h.History(rec, httptest.NewRequest("GET", "/api/v1/events"+query, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []events.Event `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Data
	}

	assert.Len(t, list(""), 3)
	assert.Len(t, list("?session=s1"), 2)
	assert.Len(t, list("?type=canvas.*"), 1)
	assert.Len(t, list("?user=u2"), 1)
	assert.Len(t, list("?limit=1"), 1)
	assert.Empty(t, list("?since="+time.Now().Add(time.Hour).UTC().Format(time.RFC3339)))

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest("GET", "/api/v1/events?since=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandler_WebSocket(t *testing.T) {
	bus := newTestBus(t)
	h := NewEventHandler(bus)

	srv := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?pattern=canvas.*&session=s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered after the upgrade; publish until the
	// first event arrives.
	got := make(chan events.Event, 1)
	go func() {
		var ev events.Event
		if err := conn.ReadJSON(&ev); err == nil {
			got <- ev
		}
	}()

	ctx := context.Background()
	deadline := time.After(5 * time.Second)
	for {
		bus.Publish(ctx, events.Event{Type: events.SessionStarted, Session: "s1"})
		bus.Publish(ctx, events.Event{Type: events.PanelMoved, Session: "s2"})
		bus.Publish(ctx, events.Event{Type: events.PanelMoved, Session: "s1"})
		select {
		case ev := <-got:
			assert.Equal(t, events.PanelMoved, ev.Type)
			assert.Equal(t, "s1", ev.Session)
			return
		case <-deadline:
			t.Fatal("no event received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	rm := metricdata.ResourceMetrics{
		ScopeMetrics: []metricdata.ScopeMetrics{{
			Metrics: []metricdata.Metrics{
				{
					Name: "ideaforge.gateway.calls",
					Data: metricdata.Sum[int64]{DataPoints: []metricdata.DataPoint[int64]{
						{Attributes: attribute.NewSet(attribute.String("provider", "openai")), Value: 3},
					}},
				},
				{
					Name: "ideaforge.gateway.latency",
					Unit: "ms",
					Data: metricdata.Histogram[float64]{DataPoints: []metricdata.HistogramDataPoint[float64]{
						{Count: 2, Sum: 40},
					}},
				},
			},
		}},
	}
	h := NewMetricsHandler(func(context.Context) (metricdata.ResourceMetrics, error) { return rm, nil })

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/v1/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []Metric `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, []MetricPoint{{Attributes: map[string]string{"provider": "openai"}, Value: 3}}, body.Data[0].Points)
	assert.Equal(t, []MetricPoint{{Count: 2, Sum: 40}}, body.Data[1].Points)

	h = NewMetricsHandler(func(context.Context) (metricdata.ResourceMetrics, error) {
		return metricdata.ResourceMetrics{}, errors.New("reader shut down")
	})
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/v1/metrics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
