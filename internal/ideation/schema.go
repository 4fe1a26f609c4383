// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ideation holds the brainstorming domain: schemas, ideas and
// rankings, the model-backed operations that produce them, and the
// per-session workspace that drives the canvas through the workflow.
package ideation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidSchema is returned when a schema lacks purpose, context or
	// criteria.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrInvalidIdeas is returned when a model reply holds no usable ideas.
	ErrInvalidIdeas = errors.New("invalid ideas")

	// ErrInvalidReply is returned when a model reply does not hold a usable
	// schema. Unlike ErrInvalidSchema it is the model's fault, not the caller's.
	ErrInvalidReply = errors.New("invalid schema in model reply")

	// ErrRankingIncomplete is returned when rankings are submitted before
	// every idea has a value.
	ErrRankingIncomplete = errors.New("every idea must be ranked")
)

// Schema is the criteria document that guides idea generation.
type Schema struct {
	Purpose         string     `json:"purpose"`
	Context         string     `json:"context"`
	Criteria        StringList `json:"criteria"`
	Constraints     StringList `json:"constraints"`
	SuccessfulIdeas StringList `json:"successful_ideas,omitempty"`
	PastIdeas       StringList `json:"past_ideas,omitempty"`
}

// Validate reports whether the schema has the fields generation needs.
func (s Schema) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if strings.TrimSpace(s.Context) == "" {
		missing = append(missing, "context")
	}
	if len(s.Criteria) == 0 {
		missing = append(missing, "criteria")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidSchema, strings.Join(missing, ", "))
	}
	return nil
}

// Equal reports whether two schemas hold the same content.
func (s Schema) Equal(o Schema) bool {
	return s.Purpose == o.Purpose &&
		s.Context == o.Context &&
		s.Criteria.Equal(o.Criteria) &&
		s.Constraints.Equal(o.Constraints) &&
		s.SuccessfulIdeas.Equal(o.SuccessfulIdeas) &&
		s.PastIdeas.Equal(o.PastIdeas)
}

// JSON returns the compact JSON encoding of the schema.
func (s Schema) JSON() json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

// StringList decodes from a JSON array, a keyed object or a single string.
// Object entries become "key: value" items ordered by key. Non-string array
// elements keep their compact JSON text.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, item := range items {
			if s := itemText(item); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(StringList, 0, len(keys))
		for _, k := range keys {
			if s := itemText(fields[k]); s != "" {
				out = append(out, k+": "+s)
			}
		}
		*l = out
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*l = StringList{s}
		} else {
			*l = nil
		}
	default:
		return fmt.Errorf("cannot decode %s into a string list", data)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. A nil list encodes as [].
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func itemText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	if buf.String() == "null" {
		return ""
	}
	return buf.String()
}

// Equal reports whether both lists hold the same items in order.
func (l StringList) Equal(o StringList) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
