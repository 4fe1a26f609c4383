// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"strings"
)

// Match reports whether eventType matches pattern. Patterns are an exact
// type, "*", a prefix wildcard such as "canvas.*" (any depth), or a suffix
// wildcard such as "*.moved".
func Match(pattern, eventType string) bool {
	switch {
	case pattern == "" || eventType == "":
		return false
	case pattern == "*" || pattern == eventType:
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(eventType, strings.TrimPrefix(pattern, "*"))
	}
	return false
}

// validatePattern rejects patterns that can never match.
func validatePattern(pattern string) error {
	if pattern == "" {
		return errors.New("empty pattern")
	}
	if strings.Count(pattern, "*") > 1 || (strings.Contains(pattern, "*") &&
		pattern != "*" && !strings.HasSuffix(pattern, ".*") && !strings.HasPrefix(pattern, "*.")) {
		return errors.New("unsupported wildcard in pattern " + pattern)
	}
	return nil
}

func matchAny(patterns []string, eventType string) bool {
	for _, p := range patterns {
		if Match(p, eventType) {
			return true
		}
	}
	return false
}
