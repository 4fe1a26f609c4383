// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package canvas

import (
	"fmt"
	"math"
	"strings"
)

// baseY is the vertical band for each panel type in the per-type layout.
var baseY = map[PanelType]float64{
	PanelContextInput:     100,
	PanelSchemaEditing:    450,
	PanelIdeaGeneration:   800,
	PanelRanking:          1150,
	PanelSchemaRefinement: 1500,
}

const baseX = 100.0

// IterationOffset is the horizontal distance between consecutive iterations.
const IterationOffset = PanelWidth + 2*PanelMargin

// NextPanelType returns the step that follows t. The second result is false
// after the last step, which loops back to a new iteration instead.
func NextPanelType(t PanelType) (PanelType, bool) {
	for i, s := range Sequence {
		if s == t && i+1 < len(Sequence) {
			return Sequence[i+1], true
		}
	}
	return "", false
}

// IterationPosition returns the per-type base position for a panel in the
// given iteration.
func IterationPosition(t PanelType, iteration int) Position {
	return Position{
		X: baseX + float64(iteration)*IterationOffset,
		Y: baseY[t],
	}
}

// NextPanelPosition places a successor immediately to the right of prev.
func NextPanelPosition(prev Position) Position {
	return Position{X: prev.X + PanelWidth + PanelGap, Y: prev.Y}
}

// loopPosition places the first panel of iteration n one row below the
// refinement panel it loops from.
func loopPosition(from Position, iteration int) Position {
	return Position{
		X: IterationPosition(PanelSchemaEditing, iteration).X,
		Y: from.Y + PanelHeight + 2*PanelMargin,
	}
}

// ConnectionPoints returns the connector endpoints: the right-middle edge of
// from and the left-middle edge of to.
func ConnectionPoints(from, to Position) (Position, Position) {
	return Position{X: from.X + PanelWidth, Y: from.Y + PanelHeight/2},
		Position{X: to.X, Y: to.Y + PanelHeight/2}
}

// ComputeBounds returns the padded extent of the given panels.
func ComputeBounds(panels []Panel) Bounds {
	if len(panels) == 0 {
		return Bounds{MinX: 0, MinY: 0, MaxX: 5000, MaxY: 5000}
	}

	b := Bounds{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
	for _, p := range panels {
		b.MinX = math.Min(b.MinX, p.Position.X)
		b.MinY = math.Min(b.MinY, p.Position.Y)
		b.MaxX = math.Max(b.MaxX, p.Position.X+PanelWidth)
		b.MaxY = math.Max(b.MaxY, p.Position.Y+PanelHeight)
	}

	b.MinX -= BoundsBuffer
	b.MinY -= BoundsBuffer
	b.MaxX += BoundsBuffer
	b.MaxY += BoundsBuffer
	return b
}

// LineIntersectsRect reports whether the segment p1-p2 touches r.
func LineIntersectsRect(p1, p2 Position, r Rect) bool {
	if r.Contains(p1) || r.Contains(p2) {
		return true
	}

	tl := Position{X: r.X, Y: r.Y}
	tr := Position{X: r.X + r.Width, Y: r.Y}
	bl := Position{X: r.X, Y: r.Y + r.Height}
	br := Position{X: r.X + r.Width, Y: r.Y + r.Height}

	return segmentsIntersect(p1, p2, tl, tr) ||
		segmentsIntersect(p1, p2, tr, br) ||
		segmentsIntersect(p1, p2, br, bl) ||
		segmentsIntersect(p1, p2, bl, tl)
}

func segmentsIntersect(a1, a2, b1, b2 Position) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	return (d1 == 0 && onSegment(b1, b2, a1)) ||
		(d2 == 0 && onSegment(b1, b2, a2)) ||
		(d3 == 0 && onSegment(a1, a2, b1)) ||
		(d4 == 0 && onSegment(a1, a2, b2))
}

func cross(o, a, b Position) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func onSegment(a, b, p Position) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// Path is an orthogonal connector route.
type Path struct {
	ConnectionID string     `json:"connectionId"`
	Points       []Position `json:"points"`
	D            string     `json:"d"`
	Label        string     `json:"label"`
}

// Route computes a right-angled path for conn. The default route bends once at
// the horizontal midpoint; when that would cross an unrelated panel the route
// detours above every obstacle instead.
func Route(conn Connection, panels []Panel, step int) Path {
	from, to := conn.FromPoint, conn.ToPoint
	midX := (from.X + to.X) / 2

	points := []Position{
		from,
		{X: midX, Y: from.Y},
		{X: midX, Y: to.Y},
		to,
	}

	var obstacles []Rect
	for i := range panels {
		if conn.Touches(panels[i].ID) {
			continue
		}
		r := panels[i].Rect()
		if pathCrosses(points, r) {
			obstacles = append(obstacles, r)
		}
	}

	if len(obstacles) > 0 {
		top := math.Min(from.Y, to.Y)
		for _, r := range obstacles {
			top = math.Min(top, r.Y)
		}
		detourY := top - PanelMargin
		points = []Position{
			from,
			{X: from.X + PanelMargin, Y: from.Y},
			{X: from.X + PanelMargin, Y: detourY},
			{X: to.X - PanelMargin, Y: detourY},
			{X: to.X - PanelMargin, Y: to.Y},
			to,
		}
	}

	return Path{
		ConnectionID: conn.ID,
		Points:       points,
		D:            svgPath(points),
		Label:        Label(conn, step),
	}
}

func pathCrosses(points []Position, r Rect) bool {
	for i := 0; i+1 < len(points); i++ {
		if LineIntersectsRect(points[i], points[i+1], r) {
			return true
		}
	}
	return false
}

func svgPath(points []Position) string {
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			fmt.Fprintf(&b, "M %g %g", p.X, p.Y)
			continue
		}
		fmt.Fprintf(&b, " L %g %g", p.X, p.Y)
	}
	return b.String()
}

// Label returns the caption drawn on a connector. step is the 1-based index of
// the connection among the canvas connections.
func Label(conn Connection, step int) string {
	if conn.Type == ConnectionIterationLoop {
		return fmt.Sprintf("Loop: %d → %d", conn.IterationFrom+1, conn.IterationTo+1)
	}
	return fmt.Sprintf("Step %d", step)
}
