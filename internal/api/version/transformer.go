// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

import "sync"

// Transformer maps response data in the latest shape to the shape of an
// older version.
type Transformer func(data interface{}) interface{}

var (
	mu sync.RWMutex

	// version -> endpoint -> transformer
	transformers = map[string]map[string]Transformer{}
)

// Transform applies the transformer registered for version and endpoint
// (e.g. "sessions.get"). Data is returned unchanged for the latest version
// or when nothing is registered.
func Transform(version, endpoint string, data interface{}) interface{} {
	if version == LatestVersion {
		return data
	}

	mu.RLock()
	t, ok := transformers[version][endpoint]
	mu.RUnlock()
	if !ok {
		return data
	}
	return t(data)
}

// RegisterTransformer adds a transformer for a version and endpoint.
func RegisterTransformer(version, endpoint string, t Transformer) {
	mu.Lock()
	defer mu.Unlock()
	if transformers[version] == nil {
		transformers[version] = make(map[string]Transformer)
	}
	transformers[version][endpoint] = t
}
