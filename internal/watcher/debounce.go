// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package watcher provides keyed debouncing and a file watcher that reports
// settled changes.
package watcher

import (
	"sync"
	"time"
)

const defaultDelay = 100 * time.Millisecond

// Debouncer runs the last function scheduled for a key once the key has
// been quiet for the delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*call
}

type call struct {
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a debouncer. A non-positive delay uses 100ms.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = defaultDelay
	}
	return &Debouncer{delay: delay, pending: make(map[string]*call)}
}

// Debounce schedules fn for key, replacing any pending function.
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}

	c := &call{fn: fn}
	c.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[key] != c {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = c
}

// Flush runs the pending function for key now. It reports whether one ran.
func (d *Debouncer) Flush(key string) bool {
	d.mu.Lock()
	c, ok := d.pending[key]
	if !ok || !c.timer.Stop() {
		d.mu.Unlock()
		return false
	}
	delete(d.pending, key)
	d.mu.Unlock()

	c.fn()
	return true
}

// FlushAll runs every pending function now.
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key := range d.pending {
		keys = append(keys, key)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.Flush(key)
	}
}

// Cancel drops the pending function for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.pending[key]; ok {
		c.timer.Stop()
		delete(d.pending, key)
	}
}

// Stop drops every pending function.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, c := range d.pending {
		c.timer.Stop()
		delete(d.pending, key)
	}
}

// Pending returns the number of scheduled functions.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
