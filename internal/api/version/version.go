// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package version implements date-based API versioning for the Ideaforge API.
//
// Clients pin a version with the Ideaforge-Version header. Requests without
// the header get the latest version. When a response shape changes, add a
// version constant, move LatestVersion to it, and register a transformer
// that maps the new shape back for clients pinned to the old one.
package version

import "context"

// Version constants.
const (
	// Version20261019 is the initial API version.
	Version20261019 = "2026-10-19"
)

// LatestVersion is the current default API version.
var LatestVersion = Version20261019

// Header is the HTTP header used to specify the API version.
const Header = "Ideaforge-Version"

type contextKey string

const versionKey contextKey = "api-version"

// FromContext returns the API version from the context, or LatestVersion.
func FromContext(ctx context.Context) string {
	v, ok := ctx.Value(versionKey).(string)
	if !ok || v == "" {
		return LatestVersion
	}
	return v
}

// WithContext returns a new context with the API version set.
func WithContext(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionKey, version)
}
