// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package docgraph assembles the documentation pipeline: parse,
// convert, resolve, freeze, index, and serve the resulting reflection
// graph over HTTP.
package docgraph

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tidewaterhq/docgraph/services/docgraph/config"
	"github.com/tidewaterhq/docgraph/services/docgraph/converter"
	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/index"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
	"github.com/tidewaterhq/docgraph/services/docgraph/resolver"
	"github.com/tidewaterhq/docgraph/services/docgraph/store"
)

// BuildOutput is one fully built and indexed documentation graph.
type BuildOutput struct {
	Project     *model.Project
	Index       *index.ReflectionIndex
	Diagnostics []model.Diagnostic
	Convert     converter.Stats
	Resolve     resolver.Stats
	FilesParsed int
	ParseErrors map[string]string
	BuiltAt     time.Time
}

// Service owns the documentation pipeline and the cache of built
// projects.
//
// Description:
//
//	Build walks a source tree, parses files in parallel, then runs
//	the strictly single-threaded conversion and resolution passes,
//	freezes the project and indexes it. Built projects are cached by
//	run id and optionally persisted as snapshots.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Builds of different roots may
//	run concurrently; each produces an independent project.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger
	snaps  *store.SnapshotStore

	mu       sync.RWMutex
	projects map[string]*BuildOutput
	latest   string
}

// NewService creates a service. The snapshot store may be nil when
// persistence is disabled.
func NewService(cfg *config.Config, snaps *store.SnapshotStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		snaps:    snaps,
		projects: make(map[string]*BuildOutput),
	}
}

// Build runs the full pipeline over a source tree and caches the
// result.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	name - Display name for the documented project.
//	root - Directory to document.
//
// Outputs:
//
//	*BuildOutput - The built graph. Per-file parse failures are
//	               recorded in ParseErrors, not returned as errors.
//	error - Walk failure, cancellation, or an empty source tree.
func (s *Service) Build(ctx context.Context, name, root string) (*BuildOutput, error) {
	start := time.Now()

	paths, err := s.collectFiles(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source files found under %s", root)
	}

	parsed, parseErrors, err := s.parseAll(ctx, root, paths)
	if err != nil {
		return nil, err
	}

	conv, err := converter.NewConverter(
		converter.WithExcludeNotExported(s.cfg.Converter.ExcludeNotExported),
		converter.WithExcludePrivate(s.cfg.Converter.ExcludePrivate),
	).Convert(ctx, name, root, parsed)
	if err != nil {
		return nil, err
	}

	res, err := resolver.New().Resolve(ctx, conv.Project)
	if err != nil {
		return nil, err
	}

	conv.Project.Freeze()

	idx, err := index.FromProject(conv.Project)
	if err != nil {
		return nil, err
	}

	out := &BuildOutput{
		Project:     conv.Project,
		Index:       idx,
		Diagnostics: append(conv.Diagnostics, res.Diagnostics...),
		Convert:     conv.Stats,
		Resolve:     res.Stats,
		FilesParsed: len(parsed),
		ParseErrors: parseErrors,
		BuiltAt:     time.Now(),
	}

	s.mu.Lock()
	s.projects[conv.Project.RunID] = out
	s.latest = conv.Project.RunID
	s.mu.Unlock()

	if s.snaps != nil && s.cfg.Storage.Enabled {
		if _, err := s.snaps.Save(ctx, conv.Project, out.Diagnostics, "build"); err != nil {
			s.logger.Warn("snapshot save failed", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("documentation build complete",
		slog.String("project", name),
		slog.String("run_id", conv.Project.RunID),
		slog.Int("files", len(parsed)),
		slog.Int("reflections", conv.Project.Registry.Len()),
		slog.Int("diagnostics", len(out.Diagnostics)),
		slog.Duration("duration", time.Since(start)))

	return out, nil
}

// Get returns a cached build by run id, or the latest when id is
// empty.
func (s *Service) Get(runID string) (*BuildOutput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if runID == "" {
		runID = s.latest
	}
	out, ok := s.projects[runID]
	return out, ok
}

// List returns the cached run ids, newest build first.
func (s *Service) List() []*BuildOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*BuildOutput, 0, len(s.projects))
	for _, b := range s.projects {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuiltAt.After(out[j].BuiltAt) })
	return out
}

// Snapshots exposes the snapshot store, nil when persistence is
// disabled.
func (s *Service) Snapshots() *store.SnapshotStore {
	return s.snaps
}

// collectFiles walks the tree and returns parseable files sorted for
// deterministic conversion order.
func (s *Service) collectFiles(root string) ([]string, error) {
	excluded := make(map[string]struct{}, len(s.cfg.Converter.ExcludeDirs))
	for _, d := range s.cfg.Converter.ExcludeDirs {
		excluded[d] = struct{}{}
	}

	parser := frontend.NewTypeScriptParser()
	exts := make(map[string]struct{})
	for _, ext := range parser.Extensions() {
		exts[ext] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := excluded[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := exts[filepath.Ext(path)]; !ok {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if matchesGlob(s.cfg.Converter.IncludeGlobs, filepath.ToSlash(rel)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// parseAll parses files in parallel. Per-file failures do not abort
// the build.
func (s *Service) parseAll(ctx context.Context, root string, paths []string) ([]*frontend.ParseResult, map[string]string, error) {
	parser := frontend.NewTypeScriptParser(
		frontend.WithMaxFileSize(s.cfg.Converter.MaxFileSizeBytes),
	)

	results := make([]*frontend.ParseResult, len(paths))
	var mu sync.Mutex
	parseErrors := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Converter.ParseWorkers)

	for i, path := range paths {
		g.Go(func() error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			content, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				parseErrors[rel] = err.Error()
				mu.Unlock()
				return nil
			}

			parsed, err := parser.Parse(gctx, content, rel)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				mu.Lock()
				parseErrors[rel] = err.Error()
				mu.Unlock()
				return nil
			}
			results[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]*frontend.ParseResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, parseErrors, nil
}

// matchesGlob reports whether a relative path matches any include
// glob. Globs use ** for directory spans. An empty glob list matches
// every path.
func matchesGlob(globs []string, rel string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, glob := range globs {
		if strings.HasPrefix(glob, "**/") {
			if ok, _ := filepath.Match(strings.TrimPrefix(glob, "**/"), filepath.Base(rel)); ok {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(glob, rel); ok {
			return true
		}
	}
	return false
}
