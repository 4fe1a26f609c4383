// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ideation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Ranking bounds.
const (
	MinRanking = 1
	MaxRanking = 10

	// HighRanking is the threshold counted as high by Insights.
	HighRanking = 5
)

// ErrInvalidRanking is returned for an unknown idea index or a value out
// of range.
var ErrInvalidRanking = errors.New("invalid ranking")

// RankingKey returns the positional key of the idea at index.
func RankingKey(index int) string {
	return fmt.Sprintf("idea-%d", index)
}

// ParseRankingKey returns the index encoded in an idea-{index} key.
func ParseRankingKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "idea-")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// RankingSheet collects user rankings for one batch of ideas, keyed by
// idea-{index}.
type RankingSheet struct {
	Count  int            `json:"count"`
	Values map[string]int `json:"rankings"`
}

// NewRankingSheet creates an empty sheet for count ideas.
func NewRankingSheet(count int) *RankingSheet {
	return &RankingSheet{Count: count, Values: make(map[string]int)}
}

// Rate sets the ranking of the idea at index.
func (r *RankingSheet) Rate(index, value int) error {
	if index < 0 || index >= r.Count {
		return fmt.Errorf("%w: idea index %d out of range [0,%d)", ErrInvalidRanking, index, r.Count)
	}
	if value < MinRanking || value > MaxRanking {
		return fmt.Errorf("%w: value %d out of range [%d,%d]", ErrInvalidRanking, value, MinRanking, MaxRanking)
	}
	if r.Values == nil {
		r.Values = make(map[string]int)
	}
	r.Values[RankingKey(index)] = value
	return nil
}

// Clone returns a deep copy of the sheet.
func (r *RankingSheet) Clone() *RankingSheet {
	c := NewRankingSheet(r.Count)
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}

// Completed returns how many ideas have a ranking.
func (r *RankingSheet) Completed() int {
	n := 0
	for i := 0; i < r.Count; i++ {
		if r.Values[RankingKey(i)] > 0 {
			n++
		}
	}
	return n
}

// Ready reports whether every idea has a ranking.
func (r *RankingSheet) Ready() bool {
	return r.Count > 0 && r.Completed() == r.Count
}

// Rankings pairs each idea with its ranking. Unranked ideas get "0".
func (r *RankingSheet) Rankings(ideas []Idea) []IdeaRanking {
	out := make([]IdeaRanking, len(ideas))
	for i, idea := range ideas {
		out[i] = IdeaRanking{
			Idea:        idea.Idea,
			Description: idea.Description,
			Ranking:     strconv.Itoa(r.Values[RankingKey(i)]),
		}
	}
	return out
}

// Insights summarizes a set of rankings.
type Insights struct {
	Average    float64 `json:"avgRanking"`
	HighRanked int     `json:"highRanked"`
	Total      int     `json:"total"`
}

// Insights summarizes the ranked ideas. Unranked ideas are ignored.
func (r *RankingSheet) Insights() Insights {
	var in Insights
	sum := 0
	for _, v := range r.Values {
		if v <= 0 {
			continue
		}
		in.Total++
		sum += v
		if v >= HighRanking {
			in.HighRanked++
		}
	}
	if in.Total > 0 {
		in.Average = float64(sum) / float64(in.Total)
	}
	return in
}
