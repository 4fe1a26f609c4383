// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers every request with data and records what it saw.
type fakeAPI struct {
	method string
	path   string
	query  string
	user   string
	body   map[string]interface{}
}

func (f *fakeAPI) serve(t *testing.T, data interface{}) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.method, f.path, f.query = r.Method, r.URL.Path, r.URL.RawQuery
		f.user = r.Header.Get("X-User-ID")
		f.body = nil
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			json.Unmarshal(b, &f.body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	t.Cleanup(server.Close)
	t.Setenv("IDEAFORGE_API", server.URL)
	t.Setenv("IDEAFORGE_USER", "")
}

func runCtl(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

var rankingView = map[string]interface{}{
	"session":       map[string]interface{}{"id": "s1"},
	"step":          "ranking",
	"schemaVersion": 2,
	"schema": map[string]interface{}{
		"purpose":  "More sales",
		"context":  "A bakery",
		"criteria": []string{"cheap"},
	},
	"ideas": []map[string]string{
		{"idea": "Loyalty card", "evaluation": "88"},
		{"idea": "Bread club", "evaluation": "75"},
	},
	"ranking": map[string]interface{}{
		"rankings":  map[string]int{"idea-0": 9},
		"completed": 1,
		"total":     2,
		"insights":  map[string]interface{}{"avgRanking": 9},
	},
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCtl(t, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage:")

	code, _, stderr = runCtl(t, "", "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")

	code, stdout, _ := runCtl(t, "", "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ideaforge-ctl "+version+"\n", stdout)
}

func TestSessionNew(t *testing.T) {
	var f fakeAPI
	f.serve(t, rankingView)

	code, stdout, stderr := runCtl(t, "", "-user", "ana", "session", "new", "-context", "A bakery", "-purpose", "More sales")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, http.MethodPost, f.method)
	assert.Equal(t, "/api/v1/sessions", f.path)
	assert.Equal(t, "ana", f.user)
	assert.Equal(t, "A bakery", f.body["context"])
	assert.Equal(t, "More sales", f.body["purpose"])

	assert.Contains(t, stdout, "Step:      ranking")
	assert.Contains(t, stdout, "Criteria:    cheap")
	assert.Contains(t, stdout, "Loyalty card")
	assert.Contains(t, stdout, "Ranked 1 of 2")
}

func TestSessionNew_Preset(t *testing.T) {
	var f fakeAPI
	f.serve(t, rankingView)

	code, _, stderr := runCtl(t, "", "session", "new", "-context", "A bakery", "-preset", "product")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "product", f.body["preset"])
	assert.Equal(t, defaultUser, f.user)
}

func TestSessionNew_BadOption(t *testing.T) {
	var f fakeAPI
	f.serve(t, rankingView)

	code, _, stderr := runCtl(t, "", "session", "new", "-colour", "blue")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown option: -colour")
	assert.Empty(t, f.method)
}

func TestSchemaConfirm_FromStdin(t *testing.T) {
	var f fakeAPI
	f.serve(t, rankingView)

	code, _, stderr := runCtl(t, `{"purpose":"p","context":"c","criteria":["x"],"constraints":[]}`, "schema", "confirm", "s1", "-")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "/api/v1/sessions/s1/schema", f.path)
	assert.Equal(t, "p", f.body["purpose"])
}

func TestSchemaConfirm_FromFile(t *testing.T) {
	var f fakeAPI
	f.serve(t, rankingView)

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"purpose":"from file","context":"c"}`), 0644))

	code, _, stderr := runCtl(t, "", "schema", "confirm", "s1", path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "from file", f.body["purpose"])
}

func TestRateAndRankings(t *testing.T) {
	var f fakeAPI
	f.serve(t, rankingView)

	code, _, stderr := runCtl(t, "", "rate", "s1", "1", "7")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, http.MethodPut, f.method)
	assert.Equal(t, "/api/v1/sessions/s1/rankings/1", f.path)
	assert.EqualValues(t, 7, f.body["value"])

	code, _, stderr = runCtl(t, "", "rankings", "s1", "0=9", "1=4")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, map[string]interface{}{"idea-0": float64(9), "idea-1": float64(4)}, f.body["rankings"])

	code, _, stderr = runCtl(t, "", "rate", "s1", "first", "7")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid index")
}

func TestParseRankings(t *testing.T) {
	got, err := parseRankings([]string{"0=9", "3=1"})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 9, 3: 1}, got)

	for _, bad := range []string{"0", "x=1", "1=y"} {
		_, err := parseRankings([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestCanvas(t *testing.T) {
	var f fakeAPI
	f.serve(t, map[string]interface{}{
		"canvas": map[string]interface{}{
			"panels": []map[string]interface{}{
				{"id": "p1", "type": "context-input", "isCompleted": true, "position": map[string]float64{"x": 50, "y": 50}},
				{"id": "p2", "type": "schema-editing", "isActive": true, "position": map[string]float64{"x": 550, "y": 50}},
			},
			"connections": []map[string]string{{"id": "c1"}},
			"scale":       1,
		},
	})

	code, stdout, stderr := runCtl(t, "", "canvas", "s1")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "/api/v1/sessions/s1/canvas", f.path)
	assert.Contains(t, stdout, "schema-editing")
	assert.Contains(t, stdout, "active")
	assert.Contains(t, stdout, "1 connections, scale 1.00")
}

func TestCanvasMoveAndScale(t *testing.T) {
	var f fakeAPI
	f.serve(t, map[string]interface{}{"id": "p1", "position": map[string]float64{"x": 60, "y": 40}, "scale": 1.5})

	code, stdout, stderr := runCtl(t, "", "canvas", "move", "s1", "p1", "10", "-10")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "/api/v1/sessions/s1/canvas/panels/p1/move", f.path)
	assert.EqualValues(t, -10, f.body["dy"])
	assert.Contains(t, stdout, "p1 moved to (60, 40)")

	code, stdout, stderr = runCtl(t, "", "canvas", "scale", "s1", "1.5")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, http.MethodPut, f.method)
	assert.Contains(t, stdout, "scale 1.50")
}

func TestChat(t *testing.T) {
	var f fakeAPI
	f.serve(t, map[string]interface{}{"message": map[string]string{"role": "assistant", "content": "Try a bread club."}})

	code, stdout, stderr := runCtl(t, "", "chat", "how", "do", "I", "sell", "more?")
	require.Equal(t, 0, code, stderr)
	msgs, _ := f.body["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "how do I sell more?", msgs[0].(map[string]interface{})["content"])
	assert.Equal(t, "Try a bread club.\n", stdout)
}

func TestEvents(t *testing.T) {
	var f fakeAPI
	f.serve(t, []map[string]interface{}{
		{"type": "session.started", "session": "s1", "payload": map[string]string{"b": "2", "a": "1"}},
	})

	code, stdout, stderr := runCtl(t, "", "events", "-n", "5", "-type", "session.*", "-session", "s1")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "limit=5&session=s1&type=session.%2A", f.query)
	assert.Contains(t, stdout, "a=1 b=2")

	code, _, stderr = runCtl(t, "", "events", "-n", "zero")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid count")
}

func TestJSONOutput(t *testing.T) {
	var f fakeAPI
	f.serve(t, map[string]string{"status": "ok", "version": "0.1.0"})

	code, stdout, stderr := runCtl(t, "", "-json", "health")
	require.Equal(t, 0, code, stderr)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "ok", got["status"])
}

func TestAPIErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"CONFLICT","message":"session is at step schema-editing"}}`))
	}))
	defer server.Close()
	t.Setenv("IDEAFORGE_API", server.URL)

	code, _, stderr := runCtl(t, "", "ideas", "s1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "CONFLICT: session is at step schema-editing")
}
