// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDebouncer_CoalescesSameKey(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Debounce("s1", func() { n.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, n.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	var a, b atomic.Int32
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Debounce("a", func() { a.Add(1) })
	d.Debounce("b", func() { b.Add(1) })

	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDebouncer_LastFunctionWins(t *testing.T) {
	var got atomic.Int32
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Debounce("k", func() { got.Store(1) })
	d.Debounce("k", func() { got.Store(2) })

	assert.Eventually(t, func() bool { return got.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestDebouncer_Flush(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(time.Hour)
	defer d.Stop()

	d.Debounce("k", func() { n.Add(1) })
	assert.Equal(t, 1, d.Pending())

	assert.True(t, d.Flush("k"))
	assert.EqualValues(t, 1, n.Load())
	assert.False(t, d.Flush("k"))

	d.Debounce("a", func() { n.Add(1) })
	d.Debounce("b", func() { n.Add(1) })
	d.FlushAll()
	assert.EqualValues(t, 3, n.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_CancelAndStop(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(20 * time.Millisecond)

	d.Debounce("a", func() { n.Add(1) })
	d.Cancel("a")
	d.Debounce("b", func() { n.Add(1) })
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, n.Load())
}

func TestFileWatcher_ReportsSettledChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0644))

	changed := make(chan string, 4)
	w, err := NewFileWatcher(path, 100*time.Millisecond, func(p string) { changed <- p }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0644))
	}

	select {
	case p := <-changed:
		assert.Equal(t, w.Path(), p)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}

	time.Sleep(250 * time.Millisecond)
	assert.Empty(t, changed, "writes are coalesced")
}

func TestFileWatcher_Errors(t *testing.T) {
	_, err := NewFileWatcher("", time.Millisecond, func(string) {}, nil)
	assert.Error(t, err)

	_, err = NewFileWatcher(filepath.Join(t.TempDir(), "missing", "p.yaml"), time.Millisecond, func(string) {}, nil)
	assert.Error(t, err)
}

func TestFileWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	w, err := NewFileWatcher(path, time.Millisecond, func(string) {}, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
