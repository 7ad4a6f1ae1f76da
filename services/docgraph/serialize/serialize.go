// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package serialize converts a resolved reflection graph to and from
// its versioned JSON form. Serialization is deterministic: reflections
// are emitted in id order and fields that do not apply to a reflection
// are absent, not null or zero.
package serialize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// SchemaVersion is the serialization schema version. The major
// component gates compatibility on load.
const SchemaVersion = "1.0.0"

// SerializedProject is the top-level JSON document.
type SerializedProject struct {
	SchemaVersion string `json:"schema_version"`
	Name          string `json:"name"`
	ProjectRoot   string `json:"project_root,omitempty"`
	RunID         string `json:"run_id"`
	CreatedAt     int64  `json:"created_at_ms"`

	// GraphHash is the sha256 of the serialized reflection list,
	// computed at encode time.
	GraphHash string `json:"graph_hash,omitempty"`

	// Reflections are every reflection of the run in id order.
	Reflections []*SerializedReflection `json:"reflections"`

	// Files maps converted file paths to contributed reflection ids.
	Files map[string][]int `json:"files,omitempty"`

	// FileOrder preserves conversion order.
	FileOrder []string `json:"file_order,omitempty"`

	// Diagnostics are the non-fatal problems of the run.
	Diagnostics []model.Diagnostic `json:"diagnostics,omitempty"`
}

// SerializedReflection is one graph node. Exactly the fields that
// apply to the node's kind are present.
type SerializedReflection struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Kind    model.Kind     `json:"kind"`
	Flags   model.Flags    `json:"flags,omitempty"`
	Comment *model.Comment `json:"comment,omitempty"`
	Parent  int            `json:"parent,omitempty"`

	Children []int `json:"children,omitempty"`

	SymbolID         string               `json:"symbol_id,omitempty"`
	Sources          []model.Source       `json:"sources,omitempty"`
	Type             *SerializedType      `json:"type,omitempty"`
	DefaultValue     string               `json:"default_value,omitempty"`
	Constraint       *SerializedType      `json:"constraint,omitempty"`
	Default          *SerializedType      `json:"default,omitempty"`
	Parameters       []int                `json:"parameters,omitempty"`
	TypeParams       []int                `json:"type_parameters,omitempty"`
	Signatures       []int                `json:"signatures,omitempty"`
	IndexSig         int                  `json:"index_signature,omitempty"`
	GetSig           int                  `json:"get_signature,omitempty"`
	SetSig           int                  `json:"set_signature,omitempty"`
	Extended         []*SerializedType    `json:"extended_types,omitempty"`
	Implemented      []*SerializedType    `json:"implemented_types,omitempty"`
	ExtendedBy       []*SerializedType    `json:"extended_by,omitempty"`
	ImplementedBy    []*SerializedType    `json:"implemented_by,omitempty"`
	InheritedFrom    *SerializedType      `json:"inherited_from,omitempty"`
	Overwrites       *SerializedType      `json:"overwrites,omitempty"`
	ImplementationOf *SerializedType      `json:"implementation_of,omitempty"`
	Hierarchy        *SerializedHierarchy `json:"type_hierarchy,omitempty"`
}

// SerializedType is the JSON form of a type value.
type SerializedType struct {
	Kind     string            `json:"kind"`
	Name     string            `json:"name,omitempty"`
	Target   int               `json:"target,omitempty"`
	Args     []*SerializedType `json:"type_arguments,omitempty"`
	Types    []*SerializedType `json:"types,omitempty"`
	Element  *SerializedType   `json:"element,omitempty"`
	Elements []*SerializedType `json:"elements,omitempty"`
	Decl     int               `json:"declaration,omitempty"`
	Text     string            `json:"text,omitempty"`
}

// SerializedHierarchy mirrors one hierarchy layer.
type SerializedHierarchy struct {
	Types    []*SerializedType    `json:"types"`
	IsTarget bool                 `json:"is_target,omitempty"`
	Next     *SerializedHierarchy `json:"next,omitempty"`
}

// Serialize flattens a project into its serialized form.
func Serialize(p *model.Project, diagnostics []model.Diagnostic) *SerializedProject {
	out := &SerializedProject{
		SchemaVersion: SchemaVersion,
		Name:          p.Name,
		ProjectRoot:   p.ProjectRoot,
		RunID:         p.RunID,
		CreatedAt:     p.CreatedAtMilli,
		Diagnostics:   diagnostics,
		FileOrder:     p.FileOrder,
	}

	if len(p.Files) > 0 {
		out.Files = make(map[string][]int, len(p.Files))
		for path, ids := range p.Files {
			out.Files[path] = idInts(ids)
		}
	}

	for _, id := range p.Registry.IDs() {
		node, ok := p.Registry.Get(id)
		if !ok {
			continue
		}
		out.Reflections = append(out.Reflections, serializeNode(node))
	}
	return out
}

// Encode serializes a project to JSON with the graph hash filled in.
func Encode(p *model.Project, diagnostics []model.Diagnostic) ([]byte, error) {
	doc := Serialize(p, diagnostics)

	body, err := json.Marshal(doc.Reflections)
	if err != nil {
		return nil, fmt.Errorf("marshal reflections: %w", err)
	}
	sum := sha256.Sum256(body)
	doc.GraphHash = hex.EncodeToString(sum[:])

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return data, nil
}

func serializeNode(node model.Node) *SerializedReflection {
	base := node.Base()
	out := &SerializedReflection{
		ID:      int(base.ID),
		Name:    base.Name,
		Kind:    base.Kind,
		Flags:   base.Flags,
		Comment: base.Comment,
		Parent:  int(base.Parent),
	}

	switch n := node.(type) {
	case *model.Project:
		out.Children = idInts(n.Children)

	case *model.Declaration:
		out.Children = idInts(n.Children)
		out.SymbolID = n.SymbolID
		out.Sources = n.Sources
		out.Type = serializeType(n.Type)
		out.DefaultValue = n.DefaultValue
		out.TypeParams = typeParamIDs(n.TypeParameters)
		for _, sig := range n.Signatures {
			out.Signatures = append(out.Signatures, int(sig.ID))
		}
		if n.IndexSignature != nil {
			out.IndexSig = int(n.IndexSignature.ID)
		}
		if n.GetSignature != nil {
			out.GetSig = int(n.GetSignature.ID)
		}
		if n.SetSignature != nil {
			out.SetSig = int(n.SetSignature.ID)
		}
		out.Extended = serializeTypes(n.ExtendedTypes)
		out.Implemented = serializeTypes(n.ImplementedTypes)
		out.ExtendedBy = serializeRefs(n.ExtendedBy)
		out.ImplementedBy = serializeRefs(n.ImplementedBy)
		if n.InheritedFrom != nil {
			out.InheritedFrom = serializeType(n.InheritedFrom)
		}
		if n.Overwrites != nil {
			out.Overwrites = serializeType(n.Overwrites)
		}
		if n.ImplementationOf != nil {
			out.ImplementationOf = serializeType(n.ImplementationOf)
		}
		out.Hierarchy = serializeHierarchy(n.Hierarchy)

	case *model.Signature:
		for _, p := range n.Parameters {
			out.Parameters = append(out.Parameters, int(p.ID))
		}
		out.TypeParams = typeParamIDs(n.TypeParameters)
		out.Type = serializeType(n.Type)

	case *model.Parameter:
		out.Type = serializeType(n.Type)
		out.DefaultValue = n.DefaultValue

	case *model.TypeParameter:
		out.Constraint = serializeType(n.Constraint)
		out.Default = serializeType(n.Default)
	}

	return out
}

func idInts(ids []model.ReflectionID) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func typeParamIDs(params []*model.TypeParameter) []int {
	if len(params) == 0 {
		return nil
	}
	out := make([]int, len(params))
	for i, p := range params {
		out[i] = int(p.ID)
	}
	return out
}

func serializeTypes(types []model.Type) []*SerializedType {
	if len(types) == 0 {
		return nil
	}
	out := make([]*SerializedType, 0, len(types))
	for _, t := range types {
		out = append(out, serializeType(t))
	}
	return out
}

func serializeRefs(refs []*model.ReferenceType) []*SerializedType {
	if len(refs) == 0 {
		return nil
	}
	out := make([]*SerializedType, 0, len(refs))
	for _, r := range refs {
		out = append(out, serializeType(r))
	}
	return out
}

func serializeType(t model.Type) *SerializedType {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case *model.IntrinsicType:
		return &SerializedType{Kind: "intrinsic", Name: v.Name}

	case *model.ReferenceType:
		out := &SerializedType{Kind: "reference", Name: v.Name}
		if v.Resolved {
			out.Target = int(v.Target)
		}
		out.Args = serializeTypes(v.TypeArguments)
		return out

	case *model.ReflectionType:
		return &SerializedType{Kind: "reflection", Decl: int(v.Declaration)}

	case *model.UnionType:
		return &SerializedType{Kind: "union", Types: serializeTypes(v.Types)}

	case *model.IntersectionType:
		return &SerializedType{Kind: "intersection", Types: serializeTypes(v.Types)}

	case *model.ArrayType:
		return &SerializedType{Kind: "array", Element: serializeType(v.Element)}

	case *model.TupleType:
		return &SerializedType{Kind: "tuple", Elements: serializeTypes(v.Elements)}

	case *model.TypeParameterType:
		return &SerializedType{Kind: "type_parameter", Name: v.Name}

	case *model.UnknownType:
		return &SerializedType{Kind: "unknown", Text: v.Text}

	default:
		return &SerializedType{Kind: "unknown", Text: t.String()}
	}
}

func serializeHierarchy(h *model.HierarchyNode) *SerializedHierarchy {
	if h == nil {
		return nil
	}
	return &SerializedHierarchy{
		Types:    serializeTypes(h.Types),
		IsTarget: h.IsTarget,
		Next:     serializeHierarchy(h.Next),
	}
}

// compatibleVersion reports whether a stored schema version can be
// loaded by this build. Only the major component must match.
func compatibleVersion(stored string) bool {
	storedMajor, _, _ := strings.Cut(stored, ".")
	currentMajor, _, _ := strings.Cut(SchemaVersion, ".")
	return storedMajor == currentMajor && storedMajor != ""
}
