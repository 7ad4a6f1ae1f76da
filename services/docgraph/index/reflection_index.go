// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package index provides fast lookup over a frozen reflection graph.
package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// ErrIndexFull is returned by Add once the configured capacity is
// reached.
var ErrIndexFull = errors.New("index full")

// Default configuration values.
const (
	// DefaultMaxReflections caps how many reflections one index holds.
	DefaultMaxReflections = 1_000_000
)

// Options configures ReflectionIndex limits.
type Options struct {
	// MaxReflections is the maximum number of entries.
	MaxReflections int
}

// DefaultOptions returns the default index options.
func DefaultOptions() Options {
	return Options{MaxReflections: DefaultMaxReflections}
}

// Option is a functional option for configuring a ReflectionIndex.
type Option func(*Options)

// WithMaxReflections sets the maximum number of entries.
func WithMaxReflections(max int) Option {
	return func(o *Options) {
		if max > 0 {
			o.MaxReflections = max
		}
	}
}

// Stats describes the index contents.
type Stats struct {
	Reflections int            `json:"reflections"`
	Names       int            `json:"names"`
	Files       int            `json:"files"`
	ByKind      map[string]int `json:"by_kind"`
}

// ReflectionIndex provides O(1) lookups of reflections by id, name,
// kind and declaring file.
//
// Thread Safety:
//
//	ReflectionIndex is safe for concurrent use.
//
// Ownership:
//
//	The index stores pointers into a frozen project and does not own
//	them. Indexed reflections must not be mutated.
type ReflectionIndex struct {
	mu sync.RWMutex

	opts   Options
	byID   map[model.ReflectionID]*model.Declaration
	byName map[string][]model.ReflectionID
	byKind map[model.Kind][]model.ReflectionID
	byFile map[string][]model.ReflectionID
}

// New creates an empty index.
func New(opts ...Option) *ReflectionIndex {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ReflectionIndex{
		opts:   o,
		byID:   make(map[model.ReflectionID]*model.Declaration),
		byName: make(map[string][]model.ReflectionID),
		byKind: make(map[model.Kind][]model.ReflectionID),
		byFile: make(map[string][]model.ReflectionID),
	}
}

// FromProject builds an index over every declaration of a frozen
// project.
//
// Inputs:
//
//	project - A frozen project. Indexing an unfrozen project is an
//	          error: later mutation would desynchronize the index.
//
// Outputs:
//
//	*ReflectionIndex - The populated index.
//	error - Unfrozen project or capacity exceeded.
func FromProject(project *model.Project, opts ...Option) (*ReflectionIndex, error) {
	if !project.Frozen() {
		return nil, fmt.Errorf("index: project %q is not frozen", project.Name)
	}

	idx := New(opts...)
	var capErr error
	project.Registry.EachDeclaration(func(d *model.Declaration) {
		if capErr != nil {
			return
		}
		if err := idx.Add(d); err != nil {
			capErr = err
		}
	})
	if capErr != nil {
		return nil, capErr
	}
	return idx, nil
}

// Add indexes one declaration.
func (idx *ReflectionIndex) Add(d *model.Declaration) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.byID) >= idx.opts.MaxReflections {
		return fmt.Errorf("%w: limit %d reached", ErrIndexFull, idx.opts.MaxReflections)
	}
	if _, exists := idx.byID[d.ID]; exists {
		return nil
	}

	idx.byID[d.ID] = d
	idx.byName[d.Name] = append(idx.byName[d.Name], d.ID)
	idx.byKind[d.Kind] = append(idx.byKind[d.Kind], d.ID)
	for _, src := range d.Sources {
		ids := idx.byFile[src.FileName]
		if len(ids) == 0 || ids[len(ids)-1] != d.ID {
			idx.byFile[src.FileName] = append(ids, d.ID)
		}
	}
	return nil
}

// ByID returns the declaration with the given id.
func (idx *ReflectionIndex) ByID(id model.ReflectionID) (*model.Declaration, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	d, ok := idx.byID[id]
	return d, ok
}

// ByName returns every declaration with the given name, in insertion
// order.
func (idx *ReflectionIndex) ByName(name string) []*model.Declaration {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.collect(idx.byName[name])
}

// ByKind returns every declaration of the given kind.
func (idx *ReflectionIndex) ByKind(kind model.Kind) []*model.Declaration {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.collect(idx.byKind[kind])
}

// ByFile returns every declaration with a source in the given file.
func (idx *ReflectionIndex) ByFile(path string) []*model.Declaration {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.collect(idx.byFile[path])
}

// Search returns declarations whose name contains the query,
// case-insensitive, sorted by name then id. An empty query matches
// nothing.
func (idx *ReflectionIndex) Search(query string, limit int) []*model.Declaration {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*model.Declaration
	for name, ids := range idx.byName {
		if !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		for _, id := range ids {
			out = append(out, idx.byID[id])
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of indexed declarations.
func (idx *ReflectionIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

// Stats returns a snapshot of the index contents.
func (idx *ReflectionIndex) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := Stats{
		Reflections: len(idx.byID),
		Names:       len(idx.byName),
		Files:       len(idx.byFile),
		ByKind:      make(map[string]int, len(idx.byKind)),
	}
	for kind, ids := range idx.byKind {
		s.ByKind[kind.String()] = len(ids)
	}
	return s
}

func (idx *ReflectionIndex) collect(ids []model.ReflectionID) []*model.Declaration {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*model.Declaration, 0, len(ids))
	for _, id := range ids {
		if d, ok := idx.byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
