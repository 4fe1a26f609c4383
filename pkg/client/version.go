// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

// API version constants.
//
// Each version represents the API as it existed on that date. When making a
// request, the client sends the version via the Ideaforge-Version header.
const (
	// LatestVersion is the current API version.
	LatestVersion = "2026-10-19"

	// Version20261019 is the initial API version.
	Version20261019 = "2026-10-19"
)

// VersionHeader is the HTTP header used to specify the API version.
const VersionHeader = "Ideaforge-Version"

// UserHeader carries the id of the user a request acts for.
const UserHeader = "X-User-ID"
