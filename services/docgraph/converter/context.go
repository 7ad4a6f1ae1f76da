// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package converter

import (
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// scopeFrame is one level of the conversion scope stack.
type scopeFrame struct {
	container  model.ReflectionID
	name       string
	typeParams map[string]struct{}
}

// scopeContext tracks where the converter currently stands in the
// containment tree: the active container, the qualified-name path to
// it, and the type parameters visible at this point.
//
// Thread Safety:
//
//	scopeContext is not safe for concurrent use. Conversion is
//	single-threaded; one scopeContext exists per Convert call.
type scopeContext struct {
	project *model.Project
	file    string
	stack   []scopeFrame

	diagnostics []model.Diagnostic
}

func newScopeContext(project *model.Project) *scopeContext {
	return &scopeContext{
		project: project,
		stack: []scopeFrame{
			{container: project.ID},
		},
	}
}

// Container returns the reflection ID new children attach to.
func (s *scopeContext) Container() model.ReflectionID {
	return s.stack[len(s.stack)-1].container
}

// Path returns a snapshot of the qualified-name path of the current
// scope, innermost last. The root frame contributes no segment.
func (s *scopeContext) Path() []string {
	path := make([]string, 0, len(s.stack)-1)
	for _, f := range s.stack[1:] {
		if f.name != "" {
			path = append(path, f.name)
		}
	}
	return path
}

// Enter pushes a new scope frame. Every Enter must be paired with a
// Leave; callers defer the Leave immediately.
func (s *scopeContext) Enter(container model.ReflectionID, name string) {
	s.stack = append(s.stack, scopeFrame{container: container, name: name})
}

// Leave pops the innermost scope frame. The root frame is never
// popped.
func (s *scopeContext) Leave() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// BindTypeParams makes the given type parameter names visible in the
// current frame and its descendants.
func (s *scopeContext) BindTypeParams(names []string) {
	frame := &s.stack[len(s.stack)-1]
	if frame.typeParams == nil {
		frame.typeParams = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		frame.typeParams[n] = struct{}{}
	}
}

// TypeParamVisible reports whether name is bound as a type parameter
// anywhere on the scope stack.
func (s *scopeContext) TypeParamVisible(name string) bool {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if _, ok := s.stack[i].typeParams[name]; ok {
			return true
		}
	}
	return false
}

// Report records a non-fatal diagnostic against the current file.
func (s *scopeContext) Report(kind model.DiagnosticKind, msg, symbol string, line int) {
	s.diagnostics = append(s.diagnostics, model.Diagnostic{
		Kind:    kind,
		Message: msg,
		File:    s.file,
		Line:    line,
		Symbol:  symbol,
	})
}
