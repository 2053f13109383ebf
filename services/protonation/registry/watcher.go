// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNoDefinitionFile is returned when watching a store that uses the
// embedded table.
var ErrNoDefinitionFile = errors.New("store has no definition file to watch")

// DefaultDebounce is the quiet period after the last change before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Reloader is the part of Store the Watcher drives.
type Reloader interface {
	Reload(ctx context.Context) (*Registry, error)
	Path() string
}

// Watcher reloads a Store when its definition file changes.
//
// # Description
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename are still observed. Events for other files
// are ignored. Bursts of events are collapsed by a debounce window into a
// single Reload.
//
// # Thread Safety
//
// Start and Stop may be called from any goroutine. Reload runs on a single
// internal goroutine.
type Watcher struct {
	store    Reloader
	file     string
	debounce time.Duration
	logger   *slog.Logger

	watcher  *fsnotify.Watcher
	events   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// NewWatcher creates a watcher for the store's definition file.
//
// debounce <= 0 selects DefaultDebounce.
func NewWatcher(store Reloader, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if store.Path() == "" {
		return nil, ErrNoDefinitionFile
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	file, err := filepath.Abs(store.Path())
	if err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		store:    store,
		file:     file,
		debounce: debounce,
		logger:   logger.With("component", "registry_watcher"),
		watcher:  fw,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.file)); err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	w.logger.Info("watching registry file", slog.String("path", w.file))
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// Non-blocking: one pending signal is enough.
			select {
			case w.events <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("registry watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.file {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.events:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if _, err := w.store.Reload(ctx); err != nil {
				w.logger.Warn("registry reload after file change failed",
					slog.String("path", w.file),
					slog.String("error", err.Error()))
			}
		}
	}
}
