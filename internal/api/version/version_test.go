// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, LatestVersion, got)
	assert.Equal(t, LatestVersion, rec.Header().Get(Header))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(Header, "2026-01-01")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "2026-01-01", got)
	assert.Equal(t, "2026-01-01", rec.Header().Get(Header))
}

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, LatestVersion, FromContext(context.Background()))
}

func TestTransform(t *testing.T) {
	RegisterTransformer("2026-01-01", "test.echo", func(data interface{}) interface{} {
		return map[string]interface{}{"legacy": data}
	})

	assert.Equal(t, "x", Transform(LatestVersion, "test.echo", "x"))
	assert.Equal(t, "x", Transform("2026-01-01", "test.other", "x"))
	assert.Equal(t, "x", Transform("1999-01-01", "test.echo", "x"))
	assert.Equal(t, map[string]interface{}{"legacy": "x"}, Transform("2026-01-01", "test.echo", "x"))
}
