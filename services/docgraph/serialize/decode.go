// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package serialize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// ErrIncompatibleSchema is returned when a stored graph was written by
// an incompatible schema major version.
var ErrIncompatibleSchema = errors.New("incompatible schema version")

// Decode rebuilds a frozen project from its serialized form.
//
// Description:
//
//	Two passes: the first allocates every reflection in stored id
//	order so registry ids line up with the stored ones, the second
//	wires parents, children, types and reference slots. The decoded
//	project is frozen; it serves reads only.
//
// Outputs:
//
//	*model.Project - The rebuilt graph.
//	[]model.Diagnostic - The run's stored diagnostics.
//	error - Malformed JSON, schema mismatch, or inconsistent ids.
func Decode(data []byte) (*model.Project, []model.Diagnostic, error) {
	var doc SerializedProject
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal project: %w", err)
	}
	return Rebuild(&doc)
}

// Rebuild reconstructs the model from an already unmarshaled document.
func Rebuild(doc *SerializedProject) (*model.Project, []model.Diagnostic, error) {
	if !compatibleVersion(doc.SchemaVersion) {
		return nil, nil, fmt.Errorf("%w: stored %q, current %q",
			ErrIncompatibleSchema, doc.SchemaVersion, SchemaVersion)
	}
	if len(doc.Reflections) == 0 {
		return nil, nil, errors.New("serialized project has no reflections")
	}
	if doc.Reflections[0].Kind != model.KindProject {
		return nil, nil, fmt.Errorf("first reflection is %s, want Project", doc.Reflections[0].Kind)
	}

	p := model.NewProject(doc.Name, doc.ProjectRoot)
	p.RunID = doc.RunID
	p.CreatedAtMilli = doc.CreatedAt
	reg := p.Registry

	if int(p.ID) != doc.Reflections[0].ID {
		return nil, nil, fmt.Errorf("project id %d does not match stored id %d", p.ID, doc.Reflections[0].ID)
	}

	for _, sr := range doc.Reflections[1:] {
		node := emptyNode(sr.Kind)
		base := node.Base()
		base.Name = sr.Name
		base.Kind = sr.Kind
		base.Flags = sr.Flags
		base.Comment = sr.Comment

		if id := reg.Allocate(node); int(id) != sr.ID {
			return nil, nil, fmt.Errorf("allocated id %d for stored id %d: ids must be dense", id, sr.ID)
		}
	}

	for _, sr := range doc.Reflections {
		if err := wireNode(reg, sr); err != nil {
			return nil, nil, err
		}
	}

	for path, ids := range doc.Files {
		for _, id := range ids {
			p.RecordFileReflection(path, model.ReflectionID(id))
		}
	}
	p.FileOrder = doc.FileOrder

	p.Freeze()
	return p, doc.Diagnostics, nil
}

// emptyNode creates the right node type for a stored kind.
func emptyNode(kind model.Kind) model.Node {
	switch kind {
	case model.KindCallSignature, model.KindConstructorSignature,
		model.KindGetSignature, model.KindSetSignature, model.KindIndexSignature:
		return &model.Signature{}
	case model.KindParameter:
		return &model.Parameter{}
	case model.KindTypeParameter:
		return &model.TypeParameter{}
	default:
		return &model.Declaration{}
	}
}

// wireNode fills the kind-specific fields of one allocated node.
func wireNode(reg *model.Registry, sr *SerializedReflection) error {
	node, ok := reg.Get(model.ReflectionID(sr.ID))
	if !ok {
		return fmt.Errorf("reflection %d missing after allocation", sr.ID)
	}
	node.Base().Parent = model.ReflectionID(sr.Parent)

	switch n := node.(type) {
	case *model.Project:
		for _, childID := range sr.Children {
			if child, ok := reg.Get(model.ReflectionID(childID)); ok {
				n.AddChild(child)
			}
		}

	case *model.Declaration:
		for _, childID := range sr.Children {
			if child, ok := reg.Get(model.ReflectionID(childID)); ok {
				n.AddChild(child)
			}
		}
		n.SymbolID = sr.SymbolID
		reg.RegisterSymbol(sr.SymbolID, n.ID)
		n.Sources = sr.Sources
		n.Type = buildType(sr.Type)
		n.DefaultValue = sr.DefaultValue
		n.TypeParameters = typeParamsByID(reg, sr.TypeParams)

		for _, sigID := range sr.Signatures {
			if sig := signatureByID(reg, sigID); sig != nil {
				n.Signatures = append(n.Signatures, sig)
			}
		}
		n.IndexSignature = signatureByID(reg, sr.IndexSig)
		n.GetSignature = signatureByID(reg, sr.GetSig)
		n.SetSignature = signatureByID(reg, sr.SetSig)

		n.ExtendedTypes = buildTypes(sr.Extended)
		n.ImplementedTypes = buildTypes(sr.Implemented)
		n.ExtendedBy = buildRefs(sr.ExtendedBy)
		n.ImplementedBy = buildRefs(sr.ImplementedBy)
		n.InheritedFrom = buildRef(sr.InheritedFrom)
		n.Overwrites = buildRef(sr.Overwrites)
		n.ImplementationOf = buildRef(sr.ImplementationOf)
		n.Hierarchy = buildHierarchy(sr.Hierarchy)

	case *model.Signature:
		for _, paramID := range sr.Parameters {
			if pn, ok := reg.Get(model.ReflectionID(paramID)); ok {
				if param, ok := pn.(*model.Parameter); ok {
					n.Parameters = append(n.Parameters, param)
				}
			}
		}
		n.TypeParameters = typeParamsByID(reg, sr.TypeParams)
		n.Type = buildType(sr.Type)

	case *model.Parameter:
		n.Type = buildType(sr.Type)
		n.DefaultValue = sr.DefaultValue

	case *model.TypeParameter:
		n.Constraint = buildType(sr.Constraint)
		n.Default = buildType(sr.Default)
	}

	return nil
}

func signatureByID(reg *model.Registry, id int) *model.Signature {
	if id == 0 {
		return nil
	}
	node, ok := reg.Get(model.ReflectionID(id))
	if !ok {
		return nil
	}
	sig, _ := node.(*model.Signature)
	return sig
}

func typeParamsByID(reg *model.Registry, ids []int) []*model.TypeParameter {
	var out []*model.TypeParameter
	for _, id := range ids {
		if node, ok := reg.Get(model.ReflectionID(id)); ok {
			if tp, ok := node.(*model.TypeParameter); ok {
				out = append(out, tp)
			}
		}
	}
	return out
}

func buildTypes(in []*SerializedType) []model.Type {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Type, 0, len(in))
	for _, st := range in {
		if t := buildType(st); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func buildRefs(in []*SerializedType) []*model.ReferenceType {
	if len(in) == 0 {
		return nil
	}
	out := make([]*model.ReferenceType, 0, len(in))
	for _, st := range in {
		if ref := buildRef(st); ref != nil {
			out = append(out, ref)
		}
	}
	return out
}

func buildRef(st *SerializedType) *model.ReferenceType {
	t := buildType(st)
	ref, _ := t.(*model.ReferenceType)
	return ref
}

func buildType(st *SerializedType) model.Type {
	if st == nil {
		return nil
	}
	switch st.Kind {
	case "intrinsic":
		return &model.IntrinsicType{Name: st.Name}

	case "reference":
		ref := &model.ReferenceType{
			Name:          st.Name,
			TypeArguments: buildTypes(st.Args),
		}
		if st.Target != 0 {
			ref.Target = model.ReflectionID(st.Target)
			ref.Resolved = true
		}
		return ref

	case "reflection":
		return &model.ReflectionType{Declaration: model.ReflectionID(st.Decl)}

	case "union":
		return &model.UnionType{Types: buildTypes(st.Types)}

	case "intersection":
		return &model.IntersectionType{Types: buildTypes(st.Types)}

	case "array":
		return &model.ArrayType{Element: buildType(st.Element)}

	case "tuple":
		return &model.TupleType{Elements: buildTypes(st.Elements)}

	case "type_parameter":
		return &model.TypeParameterType{Name: st.Name}

	default:
		return &model.UnknownType{Text: st.Text}
	}
}

func buildHierarchy(sh *SerializedHierarchy) *model.HierarchyNode {
	if sh == nil {
		return nil
	}
	return &model.HierarchyNode{
		Types:    buildTypes(sh.Types),
		IsTarget: sh.IsTarget,
		Next:     buildHierarchy(sh.Next),
	}
}
