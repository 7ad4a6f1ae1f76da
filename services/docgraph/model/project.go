// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrProjectFrozen is returned by mutating operations on a frozen project.
var ErrProjectFrozen = errors.New("project is frozen")

// Project is the root container of one documentation run. It owns every
// reflection transitively through its registry and additionally tracks
// which top-level reflections each converted file contributed.
//
// A project moves through two phases: building (conversion writes
// structure, the resolver writes reference slots) and frozen (read-only,
// served to renderers and the HTTP layer). Freeze is the single barrier
// between the two.
type Project struct {
	Container

	// RunID uniquely identifies this run. Reflection ids are only
	// meaningful together with the RunID that produced them.
	RunID string

	// ProjectRoot is the absolute path conversion started from.
	ProjectRoot string

	// CreatedAtMilli is when the project reflection was created
	// (Unix milliseconds UTC).
	CreatedAtMilli int64

	// Registry holds every reflection of this run.
	Registry *Registry

	// Files maps a converted file path to the top-level reflection ids
	// it contributed, in conversion order. A file augmenting an already
	// converted symbol contributes that symbol's existing id.
	Files map[string][]ReflectionID

	// FileOrder preserves the order files were converted in.
	FileOrder []string

	frozen bool
}

// NewProject creates a project rooted at the given path, with a fresh
// registry, and allocates the project's own reflection id.
func NewProject(name, projectRoot string) *Project {
	p := &Project{
		RunID:          uuid.NewString(),
		ProjectRoot:    projectRoot,
		CreatedAtMilli: time.Now().UnixMilli(),
		Registry:       NewRegistry(),
		Files:          make(map[string][]ReflectionID),
	}
	p.Name = name
	p.Kind = KindProject
	p.Registry.Allocate(p)
	return p
}

// RecordFileReflection records that the given file contributed the
// reflection as one of its top-level declarations.
func (p *Project) RecordFileReflection(filePath string, id ReflectionID) {
	if _, seen := p.Files[filePath]; !seen {
		p.FileOrder = append(p.FileOrder, filePath)
	}
	for _, existing := range p.Files[filePath] {
		if existing == id {
			return
		}
	}
	p.Files[filePath] = append(p.Files[filePath], id)
}

// Freeze marks the project read-only. Called once, after resolution.
func (p *Project) Freeze() {
	p.frozen = true
}

// Frozen reports whether the project has been frozen.
func (p *Project) Frozen() bool {
	return p.frozen
}

// Declaration is a convenience lookup into the registry.
func (p *Project) Declaration(id ReflectionID) (*Declaration, bool) {
	return p.Registry.Declaration(id)
}
