// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher calls a function after a file has changed and then been left
// alone for the debounce delay. The parent directory is watched so editors
// that save by rename are seen.
type FileWatcher struct {
	path      string
	onChange  func(path string)
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewFileWatcher starts watching path.
func NewFileWatcher(path string, delay time.Duration, onChange func(path string), logger *zap.Logger) (*FileWatcher, error) {
	if path == "" {
		return nil, errors.New("watcher: empty path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watcher: watch %s: %w", filepath.Dir(abs), err)
	}

	w := &FileWatcher{
		path:      abs,
		onChange:  onChange,
		watcher:   fsw,
		debouncer: NewDebouncer(delay),
		logger:    logger.Named("watcher"),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

func (w *FileWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.debouncer.Debounce(w.path, func() {
				w.logger.Debug("file changed", zap.String("path", w.path))
				w.onChange(w.path)
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close stops watching. Pending notifications are dropped.
func (w *FileWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		w.debouncer.Stop()
	})
	return err
}
