// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ideation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Idea is one generated idea. Evaluation is the model's 0-100 score, set
// after the evaluation step.
type Idea struct {
	Idea        string `json:"idea"`
	Description string `json:"description"`
	Evaluation  Score  `json:"evaluation,omitempty"`
}

// Score is an evaluation score. Models return it as a string or a number;
// it is kept as text.
type Score string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Score(strings.TrimSpace(v))
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = Score(n.String())
	return nil
}

// Int returns the numeric score, or 0 when it is not a number.
func (s Score) Int() int {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// IdeaRanking pairs an idea with the user's ranking, in the shape the
// refinement prompt expects.
type IdeaRanking struct {
	Idea        string `json:"idea"`
	Description string `json:"description"`
	Ranking     string `json:"ranking"`
}

// ContextInput is the first step of a session.
type ContextInput struct {
	Context     string `json:"context"`
	Purpose     string `json:"purpose"`
	Preferences string `json:"preferences"`
}

// FieldError is a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of an input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Add records a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate requires every field.
func (in ContextInput) Validate() error {
	errs := &ValidationError{}
	if strings.TrimSpace(in.Context) == "" {
		errs.Add("context", "is required")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		errs.Add("purpose", "is required")
	}
	if strings.TrimSpace(in.Preferences) == "" {
		errs.Add("preferences", "is required")
	}
	if len(errs.Errors) == 0 {
		return nil
	}
	return errs
}
