// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sort"
	"sync"
	"time"
)

// Default retention.
const (
	DefaultHistoryMaxEvents = 10000
	DefaultHistoryMaxAge    = time.Hour
)

// HistoryConfig bounds retained events.
type HistoryConfig struct {
	MaxEvents int
	MaxAge    time.Duration
}

// History is a bounded, time-limited event log.
type History struct {
	mu        sync.RWMutex
	events    []Event
	maxEvents int
	maxAge    time.Duration
	now       func() time.Time
}

// NewHistory creates a history, applying defaults to zero limits.
func NewHistory(cfg HistoryConfig) *History {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultHistoryMaxEvents
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultHistoryMaxAge
	}
	return &History{
		maxEvents: cfg.MaxEvents,
		maxAge:    cfg.MaxAge,
		now:       time.Now,
	}
}

// Add appends an event, dropping the oldest beyond MaxEvents.
func (h *History) Add(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, event)
	if over := len(h.events) - h.maxEvents; over > 0 {
		h.events = append([]Event(nil), h.events[over:]...)
	}
}

// Len returns the number of retained events.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Query returns matching events, oldest first.
func (h *History) Query(f Filter) []Event {
	h.mu.RLock()
	out := make([]Event, 0)
	for _, e := range h.events {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	h.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

func (f Filter) matches(e Event) bool {
	if len(f.Types) > 0 && !matchAny(f.Types, e.Type) {
		return false
	}
	if f.Session != "" && e.Session != f.Session {
		return false
	}
	if f.User != "" && e.User != f.User {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Prune drops events older than MaxAge.
func (h *History) Prune() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().Add(-h.maxAge)
	kept := h.events[:0]
	for _, e := range h.events {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	h.events = kept
}

// Reset drops every event.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}
