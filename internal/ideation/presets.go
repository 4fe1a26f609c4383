// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ideation

import (
	"sort"
	"strings"
)

// Preset is a starting template for the context input.
type Preset struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Purpose     string            `json:"purpose"`
	Schema      map[string]string `json:"schema"`
}

var presets = []Preset{
	{
		ID:          "startup-idea",
		Title:       "Startup Idea Generation",
		Description: "Generate innovative business ideas for new ventures",
		Purpose:     "Create innovative and scalable startup ideas",
		Schema: map[string]string{
			"audience":    "entrepreneurs and investors",
			"domain":      "business and technology",
			"tone":        "innovative and ambitious",
			"constraints": "market-viable and fundable",
		},
	},
	{
		ID:          "product-feature",
		Title:       "Product Feature Ideas",
		Description: "Brainstorm new features for existing products",
		Purpose:     "Develop compelling product features that enhance user experience",
		Schema: map[string]string{
			"audience":    "product users and stakeholders",
			"domain":      "product development",
			"tone":        "user-focused and practical",
			"constraints": "technically feasible and user-friendly",
		},
	},
	{
		ID:          "marketing-campaign",
		Title:       "Marketing Campaign",
		Description: "Creative marketing and promotional strategies",
		Purpose:     "Create engaging marketing campaigns that drive brand awareness",
		Schema: map[string]string{
			"audience":    "target customers and prospects",
			"domain":      "marketing and advertising",
			"tone":        "creative and compelling",
			"constraints": "budget-conscious and measurable",
		},
	},
	{
		ID:          "process-improvement",
		Title:       "Process Improvement",
		Description: "Optimize workflows and operational efficiency",
		Purpose:     "Streamline processes to increase efficiency and reduce waste",
		Schema: map[string]string{
			"audience":    "team members and stakeholders",
			"domain":      "operations and management",
			"tone":        "practical and results-oriented",
			"constraints": "cost-effective and implementable",
		},
	},
	{
		ID:          "team-building",
		Title:       "Team Building Activities",
		Description: "Foster collaboration and team spirit",
		Purpose:     "Create engaging team building activities that strengthen collaboration",
		Schema: map[string]string{
			"audience":    "team members and colleagues",
			"domain":      "human resources and culture",
			"tone":        "engaging and inclusive",
			"constraints": "budget-friendly and accessible",
		},
	},
}

// Presets returns the built-in presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FindPreset returns the preset with the given id.
func FindPreset(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Preferences renders the preset schema as one "key: value" line per entry.
func (p Preset) Preferences() string {
	keys := make([]string, 0, len(p.Schema))
	for k := range p.Schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + p.Schema[k]
	}
	return strings.Join(lines, "\n")
}

// Apply fills the empty purpose and preferences of in from the preset.
func (p Preset) Apply(in ContextInput) ContextInput {
	if strings.TrimSpace(in.Purpose) == "" {
		in.Purpose = p.Purpose
	}
	if strings.TrimSpace(in.Preferences) == "" {
		in.Preferences = p.Preferences()
	}
	return in
}
