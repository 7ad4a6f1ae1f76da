// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docgraph

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
)

// DefaultDebounce coalesces change bursts into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Watcher rebuilds a project's documentation graph whenever source
// files under its root change.
//
// Description:
//
//	Watches the project root recursively with fsnotify. Change events
//	for files the frontend cannot parse are ignored. Events are
//	debounced: a burst of writes triggers a single rebuild after the
//	configured quiet interval. Rebuild failures are logged and the
//	watcher keeps running.
//
// Thread Safety: Run owns all state; call it from one goroutine.
type Watcher struct {
	service  *Service
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher over the given service. A non-positive
// debounce falls back to DefaultDebounce.
func NewWatcher(service *Service, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{service: service, debounce: debounce, logger: logger}
}

// Run watches the project root until the context is cancelled,
// rebuilding after each debounced change burst. The initial build is
// the caller's responsibility.
func (w *Watcher) Run(ctx context.Context, projectName, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addDirs(fsw, root); err != nil {
		return err
	}
	w.logger.Info("watching for changes",
		slog.String("root", root),
		slog.Duration("debounce", w.debounce))

	exts := make(map[string]bool)
	for _, ext := range frontend.NewTypeScriptParser().Extensions() {
		exts[ext] = true
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// New directories need their own watch entry.
				_ = w.addDirs(fsw, event.Name)
			}
			if !exts[filepath.Ext(event.Name)] {
				continue
			}
			if !pending {
				pending = true
			} else if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			pending = false
			w.logger.Info("source changed, rebuilding", slog.String("root", root))
			if _, err := w.service.Build(ctx, projectName, root); err != nil {
				w.logger.Error("rebuild failed",
					slog.String("root", root),
					slog.String("error", err.Error()))
			}
		}
	}
}

// addDirs registers path and every non-excluded subdirectory.
func (w *Watcher) addDirs(fsw *fsnotify.Watcher, path string) error {
	excluded := make(map[string]bool)
	for _, dir := range w.service.cfg.Converter.ExcludeDirs {
		excluded[dir] = true
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if excluded[d.Name()] {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}
