// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import "fmt"

// DiagnosticKind classifies a non-fatal problem found while building
// or resolving the graph. No diagnostic aborts a run.
type DiagnosticKind string

const (
	// DiagUnsupportedConstruct marks a source construct the converter
	// has no handler for. The subtree is skipped.
	DiagUnsupportedConstruct DiagnosticKind = "unsupported_construct"

	// DiagUnresolvedReference marks a type reference whose symbol
	// could not be found. The reference stays unresolved.
	DiagUnresolvedReference DiagnosticKind = "unresolved_reference"

	// DiagMergeConflict marks two declarations of one symbol with
	// incompatible shapes. The later declaration's conflicting parts
	// are discarded.
	DiagMergeConflict DiagnosticKind = "merge_conflict"
)

// Diagnostic records one non-fatal problem with enough context to
// locate it in the source.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	File    string         `json:"file,omitempty"`
	Line    int            `json:"line,omitempty"`
	Symbol  string         `json:"symbol,omitempty"`
}

func (d Diagnostic) String() string {
	if d.File != "" {
		return fmt.Sprintf("%s: %s (%s:%d)", d.Kind, d.Message, d.File, d.Line)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}
