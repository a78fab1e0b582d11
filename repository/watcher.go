// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repository

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a File repository when its backing file changes.
//
// Description:
//
//	Watches the file's parent directory rather than the file itself,
//	so editors and config-management tools that replace the file via
//	rename (atomic write) keep triggering reloads. A failed reload
//	leaves the previously loaded definitions in effect; the failure is
//	logged and passed to the OnReload callback.
//
// Thread Safety: Safe for concurrent use after Start.
type Watcher struct {
	repo     *File
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onReload func(error)
	doneCh   chan struct{}
	started  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for watch and reload events.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithOnReload sets a callback invoked after every reload attempt with
// the reload's error (nil on success).
func WithOnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a watcher over a File repository.
//
// The watcher is not running until Start is called.
func NewWatcher(repo *File, opts ...WatcherOption) (*Watcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo must not be nil")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		repo:    repo,
		watcher: fsw,
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching and reloading.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.repo.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.started = true
	go w.run()
	return nil
}

// Stop halts watching and waits for the watch loop to finish. Safe to
// call on a watcher that was never started.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	if w.started {
		<-w.doneCh
	}
	return err
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	target := filepath.Clean(w.repo.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("definition file watch error", "error", err.Error())
			}
		}
	}
}

func (w *Watcher) reload() {
	err := w.repo.Reload()
	if err != nil && w.logger != nil {
		w.logger.Warn("definition file reload failed, keeping previous definitions",
			"path", w.repo.Path(),
			"error", err.Error(),
		)
	} else if err == nil && w.logger != nil {
		w.logger.Info("definition file reloaded", "path", w.repo.Path())
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
