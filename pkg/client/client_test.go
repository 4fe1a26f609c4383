// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockServer creates a test server that returns the given response.
func mockServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// apiHandler creates a handler that returns a standard API response.
func apiHandler(data interface{}, statusCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

// apiErrorHandler creates a handler that returns an API error.
func apiErrorHandler(code, message string, statusCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":    code,
				"message": message,
			},
		})
	}
}

// recorded captures the last request a server saw.
type recorded struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
	header http.Header
}

// recordingHandler records the request and answers with data.
func recordingHandler(rec *recorded, data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body = nil
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			json.Unmarshal(b, &rec.body)
		}
		apiHandler(data, http.StatusOK)(w, r)
	}
}

func sampleView() View {
	return View{
		Session:       Session{ID: "s1", UserID: "alice", Context: "Weekend projects"},
		Step:          StepSchemaEditing,
		ActivePanelID: "panel-2",
		Iteration:     1,
		Schema: Schema{
			Purpose:     "Pick one to build",
			Context:     "Weekend projects",
			Criteria:    []string{"fun"},
			Constraints: []string{"two days"},
		},
		SchemaVersion: 1,
	}
}

func TestNew(t *testing.T) {
	c := New("http://localhost:8420")

	if c.BaseURL() != "http://localhost:8420" {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), "http://localhost:8420")
	}
	if c.Version() != LatestVersion {
		t.Errorf("Version() = %q, want %q", c.Version(), LatestVersion)
	}
	if c.User() != "" {
		t.Errorf("User() = %q, want empty", c.User())
	}

	if c.Sessions == nil {
		t.Error("Sessions client is nil")
	}
	if c.Canvas == nil {
		t.Error("Canvas client is nil")
	}
	if c.Chat == nil {
		t.Error("Chat client is nil")
	}
	if c.Events == nil {
		t.Error("Events client is nil")
	}
	if c.Functions == nil {
		t.Error("Functions client is nil")
	}
}

func TestNewWithOptions(t *testing.T) {
	t.Run("WithVersion", func(t *testing.T) {
		c := New("http://localhost:8420", WithVersion("2026-01-01"))
		if c.Version() != "2026-01-01" {
			t.Errorf("Version() = %q, want %q", c.Version(), "2026-01-01")
		}
	})

	t.Run("WithUser", func(t *testing.T) {
		c := New("http://localhost:8420", WithUser("alice"))
		if c.User() != "alice" {
			t.Errorf("User() = %q, want %q", c.User(), "alice")
		}
	})

	t.Run("WithHTTPClient then WithTimeout", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		c := New("http://localhost:8420", WithHTTPClient(custom), WithTimeout(5*time.Second))
		if c.httpClient != custom || custom.Timeout != 5*time.Second {
			t.Errorf("timeout = %v, want 5s on the custom client", c.httpClient.Timeout)
		}
	})

	t.Run("trailing slash removed", func(t *testing.T) {
		c := New("http://localhost:8420/")
		if c.BaseURL() != "http://localhost:8420" {
			t.Errorf("BaseURL() = %q, want trailing slash removed", c.BaseURL())
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{Code: CodeNotFound, Message: "session not found"}
	if err.Error() != "NOT_FOUND: session not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	err2 := &APIError{Message: "Something went wrong"}
	if err2.Error() != "Something went wrong" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "Something went wrong")
	}
}

func TestHeaders(t *testing.T) {
	var rec recorded
	server := mockServer(t, recordingHandler(&rec, []Session{}))

	c := New(server.URL, WithVersion(Version20261019), WithUser("alice"))
	if _, err := c.Sessions.List(context.Background()); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if got := rec.header.Get(VersionHeader); got != Version20261019 {
		t.Errorf("%s header = %q, want %q", VersionHeader, got, Version20261019)
	}
	if got := rec.header.Get(UserHeader); got != "alice" {
		t.Errorf("%s header = %q, want %q", UserHeader, got, "alice")
	}
	if got := rec.header.Get("Content-Type"); got != "" {
		t.Errorf("Content-Type on GET = %q, want empty", got)
	}
}

func TestHealth(t *testing.T) {
	server := mockServer(t, apiHandler(map[string]string{"status": "ok", "version": "0.1.0"}, http.StatusOK))

	h, err := New(server.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "ok" || h.Version != "0.1.0" {
		t.Errorf("Health() = %+v", h)
	}
}

func TestErrors(t *testing.T) {
	t.Run("envelope error", func(t *testing.T) {
		server := mockServer(t, apiErrorHandler(CodeConflict, "expected step idea-generation", http.StatusConflict))

		_, err := New(server.URL).Sessions.GenerateIdeas(context.Background(), "s1")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if apiErr.Code != CodeConflict || apiErr.Status != http.StatusConflict {
			t.Errorf("APIError = %+v", apiErr)
		}
	})

	t.Run("validation details", func(t *testing.T) {
		server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST","message":"invalid context input","details":{"fields":{"context":"is required"}}}}`))
		})

		_, err := New(server.URL).Sessions.Create(context.Background(), ContextInput{})
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		fields, _ := apiErr.Details["fields"].(map[string]interface{})
		if fields["context"] != "is required" {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("non-JSON failure", func(t *testing.T) {
		server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		})

		_, err := New(server.URL).Sessions.Get(context.Background(), "s1")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
			t.Errorf("error = %v, want 502 APIError", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		if _, err := New(url).Sessions.List(context.Background()); err == nil {
			t.Error("List() error = nil, want request failure")
		}
	})
}

func TestSessionClient_Create(t *testing.T) {
	var rec recorded
	server := mockServer(t, recordingHandler(&rec, sampleView()))

	c := New(server.URL, WithUser("alice"))
	view, err := c.Sessions.Create(context.Background(), ContextInput{Context: "Weekend projects", Purpose: "Pick one"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if rec.method != http.MethodPost || rec.path != "/api/v1/sessions" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}
	if rec.body["context"] != "Weekend projects" || rec.body["purpose"] != "Pick one" {
		t.Errorf("body = %v", rec.body)
	}
	if _, ok := rec.body["preset"]; ok {
		t.Errorf("body has preset: %v", rec.body)
	}
	if view.Step != StepSchemaEditing || view.Schema.Criteria[0] != "fun" {
		t.Errorf("view = %+v", view)
	}
}

func TestSessionClient_CreateFromPreset(t *testing.T) {
	var rec recorded
	server := mockServer(t, recordingHandler(&rec, sampleView()))

	_, err := New(server.URL).Sessions.CreateFromPreset(context.Background(), "product", ContextInput{Context: "Pet care"})
	if err != nil {
		t.Fatalf("CreateFromPreset() error = %v", err)
	}
	if rec.body["preset"] != "product" || rec.body["context"] != "Pet care" {
		t.Errorf("body = %v", rec.body)
	}
}

func TestSessionClient_Presets(t *testing.T) {
	presets := []Preset{{ID: "product", Title: "Product ideas", Schema: map[string]string{"criteria": "novel"}}}
	server := mockServer(t, apiHandler(presets, http.StatusOK))

	got, err := New(server.URL).Sessions.Presets(context.Background())
	if err != nil {
		t.Fatalf("Presets() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "product" || got[0].Schema["criteria"] != "novel" {
		t.Errorf("Presets() = %+v", got)
	}
}

func TestSessionClient_Steps(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) (*View, error)
		method string
		path   string
		body   map[string]interface{}
	}{
		{
			name:   "Get",
			call:   func(c *Client) (*View, error) { return c.Sessions.Get(context.Background(), "s 1") },
			method: http.MethodGet,
			path:   "/api/v1/sessions/s%201",
		},
		{
			name: "ConfirmSchema",
			call: func(c *Client) (*View, error) {
				return c.Sessions.ConfirmSchema(context.Background(), "s1", Schema{Purpose: "p", Context: "c"})
			},
			method: http.MethodPost,
			path:   "/api/v1/sessions/s1/schema",
			body:   map[string]interface{}{"purpose": "p", "context": "c"},
		},
		{
			name:   "GenerateIdeas",
			call:   func(c *Client) (*View, error) { return c.Sessions.GenerateIdeas(context.Background(), "s1") },
			method: http.MethodPost,
			path:   "/api/v1/sessions/s1/ideas",
		},
		{
			name:   "Rate",
			call:   func(c *Client) (*View, error) { return c.Sessions.Rate(context.Background(), "s1", 2, 4) },
			method: http.MethodPut,
			path:   "/api/v1/sessions/s1/rankings/2",
			body:   map[string]interface{}{"value": float64(4)},
		},
		{
			name: "SubmitRankings",
			call: func(c *Client) (*View, error) {
				return c.Sessions.SubmitRankings(context.Background(), "s1", map[int]int{0: 5, 1: 1})
			},
			method: http.MethodPost,
			path:   "/api/v1/sessions/s1/rankings",
		},
		{
			name:   "Refine",
			call:   func(c *Client) (*View, error) { return c.Sessions.Refine(context.Background(), "s1") },
			method: http.MethodPost,
			path:   "/api/v1/sessions/s1/refine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorded
			server := mockServer(t, recordingHandler(&rec, sampleView()))

			view, err := tt.call(New(server.URL))
			if err != nil {
				t.Fatalf("%s() error = %v", tt.name, err)
			}
			if view.Session.ID != "s1" {
				t.Errorf("view.Session.ID = %q", view.Session.ID)
			}
			if rec.method != tt.method || rec.path != tt.path {
				t.Errorf("request = %s %s, want %s %s", rec.method, rec.path, tt.method, tt.path)
			}
			for k, want := range tt.body {
				if rec.body[k] != want {
					t.Errorf("body[%q] = %v, want %v", k, rec.body[k], want)
				}
			}
		})
	}
}

func TestSessionClient_SubmitRankingsBody(t *testing.T) {
	var rec recorded
	server := mockServer(t, recordingHandler(&rec, sampleView()))

	if _, err := New(server.URL).Sessions.SubmitRankings(context.Background(), "s1", map[int]int{0: 5, 3: 2}); err != nil {
		t.Fatalf("SubmitRankings() error = %v", err)
	}
	rankings, _ := rec.body["rankings"].(map[string]interface{})
	if rankings["idea-0"] != float64(5) || rankings["idea-3"] != float64(2) {
		t.Errorf("rankings = %v", rec.body["rankings"])
	}
}

func TestSessionClient_History(t *testing.T) {
	rank := 4
	hist := SessionHistory{
		Session:        Session{ID: "s1"},
		SchemaVersions: []SchemaVersion{{ID: "v1", Version: 1, Schema: json.RawMessage(`{"purpose":"p"}`)}},
		Ideas:          []StoredIdea{{ID: "i1", Idea: "Bird feeder", EvaluationScore: "82", UserRanking: &rank}},
	}
	server := mockServer(t, apiHandler(hist, http.StatusOK))

	got, err := New(server.URL).Sessions.History(context.Background(), "s1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got.SchemaVersions) != 1 || got.SchemaVersions[0].Version != 1 {
		t.Errorf("SchemaVersions = %+v", got.SchemaVersions)
	}
	if len(got.Ideas) != 1 || *got.Ideas[0].UserRanking != 4 {
		t.Errorf("Ideas = %+v", got.Ideas)
	}
}

func TestIdea_Score(t *testing.T) {
	tests := []struct {
		eval string
		want int
	}{
		{"82", 82},
		{"73.6", 73},
		{"", 0},
		{"high", 0},
	}
	for _, tt := range tests {
		if got := (Idea{Evaluation: tt.eval}).Score(); got != tt.want {
			t.Errorf("Score(%q) = %d, want %d", tt.eval, got, tt.want)
		}
	}
}

func TestCanvasClient(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		cv := CanvasView{
			Canvas: CanvasSnapshot{
				Panels:      []Panel{{ID: "p1", Type: StepContextInput, Completed: true}, {ID: "p2", Type: StepSchemaEditing, Active: true}},
				Connections: []Connection{{ID: "c1", From: "p1", To: "p2", Type: ConnectionWorkflow}},
				Scale:       1,
			},
			Paths: []Path{{ConnectionID: "c1", D: "M 450 250 L 550 250"}},
		}
		server := mockServer(t, apiHandler(cv, http.StatusOK))

		got, err := New(server.URL).Canvas.Get(context.Background(), "s1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if len(got.Canvas.Panels) != 2 || !got.Canvas.Panels[1].Active {
			t.Errorf("Panels = %+v", got.Canvas.Panels)
		}
		if got.Paths[0].D != "M 450 250 L 550 250" {
			t.Errorf("Paths = %+v", got.Paths)
		}
	})

	t.Run("Move", func(t *testing.T) {
		var rec recorded
		server := mockServer(t, recordingHandler(&rec, Panel{ID: "p1", Position: Position{X: 60, Y: 70}}))

		p, err := New(server.URL).Canvas.Move(context.Background(), "s1", "p1", 10, 20)
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if rec.path != "/api/v1/sessions/s1/canvas/panels/p1/move" || rec.body["dx"] != float64(10) || rec.body["dy"] != float64(20) {
			t.Errorf("request = %s %v", rec.path, rec.body)
		}
		if p.Position.X != 60 {
			t.Errorf("Position = %+v", p.Position)
		}
	})

	t.Run("SetScale", func(t *testing.T) {
		var rec recorded
		server := mockServer(t, recordingHandler(&rec, map[string]float64{"scale": 2}))

		got, err := New(server.URL).Canvas.SetScale(context.Background(), "s1", 5)
		if err != nil {
			t.Fatalf("SetScale() error = %v", err)
		}
		if rec.method != http.MethodPut || rec.body["scale"] != float64(5) {
			t.Errorf("request = %s %v", rec.method, rec.body)
		}
		if got != 2 {
			t.Errorf("SetScale() = %v, want clamped 2", got)
		}
	})
}

func TestChatClient(t *testing.T) {
	t.Run("Send", func(t *testing.T) {
		var rec recorded
		server := mockServer(t, recordingHandler(&rec, ChatReply{ID: "r1", Message: Message{Role: "assistant", Content: "Try a bird feeder."}}))

		reply, err := New(server.URL, WithUser("alice")).Chat.Send(context.Background(), []Message{{Role: "user", Content: "Ideas?"}})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		msgs, _ := rec.body["messages"].([]interface{})
		if rec.path != "/api/v1/chat" || len(msgs) != 1 {
			t.Errorf("request = %s %v", rec.path, rec.body)
		}
		if reply.Message.Content != "Try a bird feeder." {
			t.Errorf("reply = %+v", reply)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		server := mockServer(t, apiErrorHandler(CodeRateLimited, "message sent too soon", http.StatusTooManyRequests))

		_, err := New(server.URL).Chat.Send(context.Background(), []Message{{Role: "user", Content: "again"}})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Code != CodeRateLimited {
			t.Errorf("error = %v, want RATE_LIMITED", err)
		}
	})

	t.Run("History", func(t *testing.T) {
		records := []ChatRecord{{ID: "r1", UserID: "alice", Response: "hello"}}
		server := mockServer(t, apiHandler(records, http.StatusOK))

		got, err := New(server.URL).Chat.History(context.Background())
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(got) != 1 || got[0].Response != "hello" {
			t.Errorf("History() = %+v", got)
		}
	})
}

func TestEventClient_List(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		var rec recorded
		server := mockServer(t, recordingHandler(&rec, []Event{{ID: "e1", Type: "session.started", Session: "s1"}}))

		since := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
		got, err := New(server.URL).Events.List(context.Background(), &ListOptions{
			Limit:   10,
			Types:   []string{"session.*", "ideas.generated"},
			Session: "s1",
			Since:   since,
		})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := "limit=10&session=s1&since=2026-10-19T08%3A00%3A00Z&type=session.%2A&type=ideas.generated"
		if rec.query != want {
			t.Errorf("query = %q, want %q", rec.query, want)
		}
		if len(got) != 1 || got[0].Type != "session.started" {
			t.Errorf("List() = %+v", got)
		}
	})

	t.Run("no options", func(t *testing.T) {
		var rec recorded
		server := mockServer(t, recordingHandler(&rec, []Event{}))

		if _, err := New(server.URL).Events.List(context.Background(), nil); err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if rec.path != "/api/v1/events" || rec.query != "" {
			t.Errorf("request = %s?%s", rec.path, rec.query)
		}
	})
}

func TestFunctionClient_ChatCompletion(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
			var fr FunctionRequest
			json.NewDecoder(r.Body).Decode(&fr)
			if fr.UserPrompt != "hi" || !fr.ExpectArray {
				t.Errorf("request = %+v", fr)
			}
			w.Write([]byte(`{"success":true,"data":"[1,2]","model":"m","usage":{"total_tokens":7}}`))
		})

		resp, err := New(server.URL).Functions.ChatCompletion(context.Background(), FunctionRequest{UserPrompt: "hi", ExpectArray: true})
		if err != nil {
			t.Fatalf("ChatCompletion() error = %v", err)
		}
		if resp.Data != "[1,2]" || resp.Usage.TotalTokens != 7 {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("failure", func(t *testing.T) {
		server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":"upstream timeout"}`))
		})

		resp, err := New(server.URL).Functions.ChatCompletion(context.Background(), FunctionRequest{UserPrompt: "hi"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "upstream timeout" || apiErr.Status != http.StatusBadGateway {
			t.Errorf("error = %v", err)
		}
		if resp == nil || resp.Success {
			t.Errorf("response = %+v, want the failed response", resp)
		}
	})
}
