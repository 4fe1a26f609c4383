// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package canvas

import (
	"fmt"
	"strings"
)

// CheckError lists structural problems found in a canvas.
type CheckError struct {
	Problems []string
}

func (e *CheckError) Error() string {
	return "canvas check failed: " + strings.Join(e.Problems, "; ")
}

// Check verifies the structural invariants of the canvas: every iteration's
// panels are chained by panels-1 workflow connections, every iteration after
// the first starts with a schema-editing panel reached by exactly one
// iteration-loop connection, and exactly one panel is active.
func (c *Canvas) Check() error {
	errs := &CheckError{}

	workflow := make(map[int]int)
	loops := make(map[int]int)
	for _, conn := range c.connections {
		switch conn.Type {
		case ConnectionWorkflow:
			workflow[conn.IterationFrom]++
		case ConnectionIterationLoop:
			loops[conn.IterationTo]++
		}
		if _, ok := c.panels[conn.From]; !ok {
			errs.Problems = append(errs.Problems, fmt.Sprintf("connection %s: unknown source", conn.ID))
		}
		if _, ok := c.panels[conn.To]; !ok {
			errs.Problems = append(errs.Problems, fmt.Sprintf("connection %s: unknown target", conn.ID))
		}
	}

	for _, it := range c.iterations {
		if n := len(it.PanelIDs); n > 0 && workflow[it.Number] != n-1 {
			errs.Problems = append(errs.Problems,
				fmt.Sprintf("iteration %d: %d workflow connections for %d panels", it.Number, workflow[it.Number], n))
		}
		if it.Number == 0 {
			continue
		}
		if loops[it.Number] != 1 {
			errs.Problems = append(errs.Problems,
				fmt.Sprintf("iteration %d: %d loop connections", it.Number, loops[it.Number]))
		}
		if len(it.PanelIDs) > 0 {
			if first := c.panels[it.PanelIDs[0]]; first == nil || first.Type != PanelSchemaEditing {
				errs.Problems = append(errs.Problems,
					fmt.Sprintf("iteration %d: does not start with %s", it.Number, PanelSchemaEditing))
			}
		}
	}

	active := 0
	for _, p := range c.panels {
		if p.Active {
			active++
		}
	}
	if active != 1 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("%d active panels", active))
	}

	if len(errs.Problems) == 0 {
		return nil
	}
	return errs
}
