// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ideation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want StringList
	}{
		{"array", `["fast", "cheap"]`, StringList{"fast", "cheap"}},
		{"mixed array", `["fast", {"cost": "low"}, 3]`, StringList{"fast", `{"cost":"low"}`, "3"}},
		{"object", `{"novelty": "high", "cost": "low"}`, StringList{"cost: low", "novelty: high"}},
		{"string", `"must be legal"`, StringList{"must be legal"}},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringList_MarshalNil(t *testing.T) {
	data, err := json.Marshal(Schema{Purpose: "p", Context: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"purpose":"p","context":"c","criteria":[],"constraints":[]}`, string(data))
}

func TestSchema_Validate(t *testing.T) {
	valid := Schema{Purpose: "p", Context: "c", Criteria: StringList{"novel"}}
	assert.NoError(t, valid.Validate())

	err := Schema{Purpose: "p"}.Validate()
	require.ErrorIs(t, err, ErrInvalidSchema)
	assert.Contains(t, err.Error(), "context, criteria")
}

func TestSchema_Equal(t *testing.T) {
	a := Schema{Purpose: "p", Context: "c", Criteria: StringList{"x"}, Constraints: StringList{"y"}}
	b := a
	assert.True(t, a.Equal(b))

	b.Criteria = StringList{"x", "z"}
	assert.False(t, a.Equal(b))

	c := a
	c.SuccessfulIdeas = StringList{"bake sale"}
	assert.False(t, a.Equal(c))
}

func TestSchema_DecodesModelShapes(t *testing.T) {
	raw := `{
		"purpose": "Grow weekday sales",
		"context": "A neighborhood bakery",
		"criteria": {"cost": "low", "effort": "small"},
		"constraints": "no new staff",
		"successful_ideas": ["loyalty card"]
	}`
	s, err := decodeSchema(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, StringList{"cost: low", "effort: small"}, s.Criteria)
	assert.Equal(t, StringList{"no new staff"}, s.Constraints)
	assert.True(t, s.SuccessfulIdeas.Contains("loyalty card"))
}

func TestContextInput_Validate(t *testing.T) {
	err := ContextInput{Context: "bakery", Purpose: "  "}.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)
	assert.Equal(t, "purpose", verr.Errors[0].Field)
	assert.Equal(t, "preferences", verr.Errors[1].Field)
	assert.Equal(t, "purpose: is required; preferences: is required", err.Error())

	assert.NoError(t, ContextInput{Context: "c", Purpose: "p", Preferences: "q"}.Validate())
}

func TestPresets(t *testing.T) {
	assert.Len(t, Presets(), 5)

	p, ok := FindPreset("startup-idea")
	require.True(t, ok)
	assert.Equal(t, "audience: entrepreneurs and investors\n"+
		"constraints: market-viable and fundable\n"+
		"domain: business and technology\n"+
		"tone: innovative and ambitious", p.Preferences())

	in := p.Apply(ContextInput{Context: "fintech", Purpose: "Payments for freelancers"})
	assert.Equal(t, "Payments for freelancers", in.Purpose)
	assert.Equal(t, p.Preferences(), in.Preferences)

	_, ok = FindPreset("nope")
	assert.False(t, ok)
}
