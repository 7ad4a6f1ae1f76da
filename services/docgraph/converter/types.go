// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package converter

import (
	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// intrinsicNames are the built-in type names that convert to intrinsic
// types instead of references.
var intrinsicNames = map[string]struct{}{
	"string":    {},
	"number":    {},
	"boolean":   {},
	"void":      {},
	"undefined": {},
	"null":      {},
	"any":       {},
	"unknown":   {},
	"never":     {},
	"object":    {},
	"symbol":    {},
	"bigint":    {},
}

// convertType maps a front-end type descriptor onto the type model.
// Named types check the scope's type parameters first, then the
// intrinsic set; everything else becomes a lazily resolved reference.
// Shapes the model does not cover keep their raw text as Unknown and
// never fail the conversion.
func (c *Converter) convertType(cx *scopeContext, t *frontend.TypeExpr) model.Type {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case frontend.TypeExprNamed:
		if len(t.Args) == 0 && cx.TypeParamVisible(t.Name) {
			return &model.TypeParameterType{Name: t.Name}
		}
		if _, ok := intrinsicNames[t.Name]; ok && len(t.Args) == 0 {
			return &model.IntrinsicType{Name: t.Name}
		}
		ref := &model.ReferenceType{
			Name:      t.Name,
			ScopePath: cx.Path(),
		}
		for _, arg := range t.Args {
			ref.TypeArguments = append(ref.TypeArguments, c.convertType(cx, arg))
		}
		return ref

	case frontend.TypeExprUnion:
		out := &model.UnionType{}
		for _, m := range t.Members {
			if mt := c.convertType(cx, m); mt != nil {
				out.Types = append(out.Types, mt)
			}
		}
		return out

	case frontend.TypeExprIntersection:
		out := &model.IntersectionType{}
		for _, m := range t.Members {
			if mt := c.convertType(cx, m); mt != nil {
				out.Types = append(out.Types, mt)
			}
		}
		return out

	case frontend.TypeExprArray:
		return &model.ArrayType{Element: c.convertType(cx, t.Element)}

	case frontend.TypeExprTuple:
		out := &model.TupleType{}
		for _, m := range t.Members {
			if mt := c.convertType(cx, m); mt != nil {
				out.Elements = append(out.Elements, mt)
			}
		}
		return out

	case frontend.TypeExprObject:
		return c.convertTypeLiteral(cx, t)

	case frontend.TypeExprLiteral:
		return &model.UnknownType{Text: t.Text}

	default:
		return &model.UnknownType{Text: t.Text}
	}
}

// convertTypeLiteral builds the synthetic declaration behind an inline
// object type. The declaration is allocated like any other reflection
// but is owned by the type, not by the container's child list.
func (c *Converter) convertTypeLiteral(cx *scopeContext, t *frontend.TypeExpr) model.Type {
	reg := cx.project.Registry

	decl := model.NewDeclaration("__type", model.KindTypeLiteral)
	reg.Allocate(decl)
	decl.Parent = cx.Container()

	cx.Enter(decl.ID, "")
	defer cx.Leave()

	var stats Stats
	for _, member := range t.ObjectMembers {
		// Inline members have no stable identity; a bare name must not
		// become a merge key.
		clearSymbols(member)
		c.convertNode(cx, member, decl, &stats)
	}

	return &model.ReflectionType{Declaration: decl.ID}
}

func clearSymbols(n *frontend.Node) {
	if n == nil {
		return
	}
	n.SymbolID = ""
	for _, child := range n.Children {
		clearSymbols(child)
	}
}
