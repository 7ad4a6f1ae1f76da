// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package converter

import (
	"fmt"

	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// fetchOrCreate returns the declaration for the node's symbol,
// creating it in the current container on first sight and merging
// subsequent declarations of the same symbol into it. Returns nil
// when the symbol is already taken by an incompatible shape; the
// conflict is reported and the caller skips the node.
func (c *Converter) fetchOrCreate(cx *scopeContext, n *frontend.Node, kind model.Kind, stats *Stats) (*model.Declaration, bool) {
	reg := cx.project.Registry

	if n.SymbolID != "" {
		if id, ok := reg.LookupSymbol(n.SymbolID); ok {
			decl, isDecl := reg.Declaration(id)
			if !isDecl || decl.Kind != kind {
				existing := "non-declaration"
				if isDecl {
					existing = decl.Kind.String()
				}
				cx.Report(model.DiagMergeConflict,
					fmt.Sprintf("symbol already declared as %s, discarding %s declaration", existing, kind),
					n.SymbolID, n.Loc.StartLine)
				stats.NodesSkipped++
				return nil, false
			}

			decl.Sources = append(decl.Sources, sourceOf(n))
			decl.Flags |= flagsOf(n)
			if decl.Comment.IsEmpty() {
				decl.Comment = commentOf(n.Doc)
			}
			cx.project.RecordFileReflection(cx.file, decl.ID)
			stats.SymbolsMerged++
			return decl, false
		}
	}

	decl := model.NewDeclaration(n.Name, kind)
	decl.SymbolID = n.SymbolID
	decl.Flags = flagsOf(n)
	decl.Comment = commentOf(n.Doc)
	decl.Sources = append(decl.Sources, sourceOf(n))

	reg.Allocate(decl)
	decl.Parent = cx.Container()
	reg.RegisterSymbol(n.SymbolID, decl.ID)
	c.attach(cx, decl)
	cx.project.RecordFileReflection(cx.file, decl.ID)
	return decl, true
}

// attach appends a new declaration to the current container's child
// list.
func (c *Converter) attach(cx *scopeContext, decl *model.Declaration) {
	parent, ok := cx.project.Registry.Get(cx.Container())
	if !ok {
		return
	}
	switch p := parent.(type) {
	case *model.Project:
		p.AddChild(decl)
	case *model.Declaration:
		p.AddChild(decl)
	}
}

// convertNamespace creates or merges a namespace declaration and
// converts its body under the extended scope. Namespaces with the same
// symbol merge across files.
func (c *Converter) convertNamespace(cx *scopeContext, n *frontend.Node, stats *Stats) {
	kind := model.KindNamespace
	if n.Kind == frontend.NodeKindModule {
		kind = model.KindModule
	}

	decl, _ := c.fetchOrCreate(cx, n, kind, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	cx.Enter(decl.ID, decl.Name)
	defer cx.Leave()
	for _, child := range n.Children {
		c.convertNode(cx, child, decl, stats)
	}
}

// convertClassLike handles classes and interfaces: heritage, type
// parameters, then members under the class scope. Repeated interface
// declarations of one symbol augment the first.
func (c *Converter) convertClassLike(cx *scopeContext, n *frontend.Node, kind model.Kind, stats *Stats) {
	decl, created := c.fetchOrCreate(cx, n, kind, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	cx.Enter(decl.ID, decl.Name)
	defer cx.Leave()

	if created {
		decl.TypeParameters = c.convertTypeParameters(cx, n.TypeParams, decl.ID)
	} else {
		c.bindTypeParamNames(cx, decl.TypeParameters)
	}

	for _, ext := range n.Extends {
		if t := c.convertType(cx, ext); t != nil {
			decl.ExtendedTypes = append(decl.ExtendedTypes, t)
		}
	}
	for _, impl := range n.Implements {
		if t := c.convertType(cx, impl); t != nil {
			decl.ImplementedTypes = append(decl.ImplementedTypes, t)
		}
	}

	for _, child := range n.Children {
		c.convertNode(cx, child, decl, stats)
	}
}

// convertEnum creates an enum declaration and its members.
func (c *Converter) convertEnum(cx *scopeContext, n *frontend.Node, stats *Stats) {
	decl, _ := c.fetchOrCreate(cx, n, model.KindEnum, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	cx.Enter(decl.ID, decl.Name)
	defer cx.Leave()
	for _, child := range n.Children {
		c.convertNode(cx, child, decl, stats)
	}
}

func (c *Converter) convertEnumMember(cx *scopeContext, n *frontend.Node, stats *Stats) {
	decl, _ := c.fetchOrCreate(cx, n, model.KindEnumMember, stats)
	if decl == nil {
		return
	}
	decl.DefaultValue = n.Default
	stats.NodesConverted++
}

// convertFunctionLike appends one signature to the symbol's overload
// set, creating the declaration on first sight. N overload
// declarations of one function yield one Declaration with N
// signatures.
func (c *Converter) convertFunctionLike(cx *scopeContext, n *frontend.Node, kind model.Kind, stats *Stats) {
	decl, _ := c.fetchOrCreate(cx, n, kind, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	sigKind := model.KindCallSignature
	if kind == model.KindConstructor {
		sigKind = model.KindConstructorSignature
	}
	sig := c.buildSignature(cx, n, sigKind, decl)
	decl.Signatures = append(decl.Signatures, sig)
}

// convertAccessor merges a getter or setter into the symbol's single
// accessor declaration. A getter and setter sharing a symbol produce
// one Declaration carrying both signatures.
func (c *Converter) convertAccessor(cx *scopeContext, n *frontend.Node, stats *Stats) {
	decl, _ := c.fetchOrCreate(cx, n, model.KindAccessor, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	if n.Kind == frontend.NodeKindGetter {
		if decl.GetSignature != nil {
			cx.Report(model.DiagMergeConflict,
				fmt.Sprintf("duplicate get signature for %q", n.Name),
				n.SymbolID, n.Loc.StartLine)
			return
		}
		decl.GetSignature = c.buildSignature(cx, n, model.KindGetSignature, decl)
		return
	}

	if decl.SetSignature != nil {
		cx.Report(model.DiagMergeConflict,
			fmt.Sprintf("duplicate set signature for %q", n.Name),
			n.SymbolID, n.Loc.StartLine)
		return
	}
	decl.SetSignature = c.buildSignature(cx, n, model.KindSetSignature, decl)
}

// convertMember handles properties, variables and constants.
func (c *Converter) convertMember(cx *scopeContext, n *frontend.Node, kind model.Kind, stats *Stats) {
	decl, created := c.fetchOrCreate(cx, n, kind, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	if created || decl.Type == nil {
		decl.Type = c.convertType(cx, n.Type)
	}
	if decl.DefaultValue == "" {
		decl.DefaultValue = n.Default
	}
}

// convertTypeAlias creates a type alias declaration with the aliased
// type, binding alias type parameters for the right-hand side.
func (c *Converter) convertTypeAlias(cx *scopeContext, n *frontend.Node, stats *Stats) {
	decl, created := c.fetchOrCreate(cx, n, model.KindTypeAlias, stats)
	if decl == nil {
		return
	}
	stats.NodesConverted++

	cx.Enter(decl.ID, "")
	defer cx.Leave()

	if created {
		decl.TypeParameters = c.convertTypeParameters(cx, n.TypeParams, decl.ID)
		decl.Type = c.convertType(cx, n.Type)
	}
}

// convertIndexSignature attaches an index signature to the enclosing
// class or interface declaration.
func (c *Converter) convertIndexSignature(cx *scopeContext, n *frontend.Node, parentDecl *model.Declaration, stats *Stats) {
	if parentDecl == nil {
		cx.Report(model.DiagUnsupportedConstruct,
			"index signature outside a class or interface body",
			n.SymbolID, n.Loc.StartLine)
		stats.NodesSkipped++
		return
	}
	if parentDecl.IndexSignature != nil {
		cx.Report(model.DiagMergeConflict,
			fmt.Sprintf("duplicate index signature on %q", parentDecl.Name),
			parentDecl.SymbolID, n.Loc.StartLine)
		return
	}
	parentDecl.IndexSignature = c.buildSignature(cx, n, model.KindIndexSignature, parentDecl)
	stats.NodesConverted++
}

// buildSignature converts one callable shape: type parameters,
// parameters and return type, all under a scope where the signature's
// type parameters are visible.
func (c *Converter) buildSignature(cx *scopeContext, n *frontend.Node, kind model.Kind, owner *model.Declaration) *model.Signature {
	reg := cx.project.Registry

	sig := &model.Signature{}
	sig.Name = n.Name
	sig.Kind = kind
	sig.Flags = flagsOf(n)
	sig.Comment = commentOf(n.Doc)
	reg.Allocate(sig)
	sig.Parent = owner.ID

	cx.Enter(owner.ID, "")
	defer cx.Leave()

	sig.TypeParameters = c.convertTypeParameters(cx, n.TypeParams, sig.ID)

	for _, p := range n.Params {
		param := &model.Parameter{}
		param.Name = p.Name
		param.Kind = model.KindParameter
		param.Flags = flagsOf(p)
		param.Comment = commentOf(p.Doc)
		param.DefaultValue = p.Default
		reg.Allocate(param)
		param.Parent = sig.ID
		param.Type = c.convertType(cx, p.Type)
		sig.Parameters = append(sig.Parameters, param)
	}

	sig.Type = c.convertType(cx, n.Type)
	return sig
}

// convertTypeParameters converts the generic parameters of a
// declaration or signature and binds their names in the current scope
// frame.
func (c *Converter) convertTypeParameters(cx *scopeContext, nodes []*frontend.Node, parent model.ReflectionID) []*model.TypeParameter {
	if len(nodes) == 0 {
		return nil
	}

	reg := cx.project.Registry
	out := make([]*model.TypeParameter, 0, len(nodes))
	names := make([]string, 0, len(nodes))

	// Bind the names first so constraints can refer to sibling
	// parameters (<K, V extends K>).
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	cx.BindTypeParams(names)

	for _, n := range nodes {
		tp := &model.TypeParameter{}
		tp.Name = n.Name
		tp.Kind = model.KindTypeParameter
		reg.Allocate(tp)
		tp.Parent = parent
		tp.Constraint = c.convertType(cx, n.Constraint)
		tp.Default = c.convertType(cx, n.DefaultType)
		out = append(out, tp)
	}
	return out
}

// bindTypeParamNames rebinds an already converted parameter list when
// re-entering a merged declaration's scope.
func (c *Converter) bindTypeParamNames(cx *scopeContext, params []*model.TypeParameter) {
	if len(params) == 0 {
		return
	}
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	cx.BindTypeParams(names)
}
