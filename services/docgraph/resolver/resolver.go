// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolver runs the deferred post-pass over a converted
// project: it binds reference types to their target declarations,
// populates reverse heritage edges, linearizes type hierarchies and
// links overriding members to what they override. A project must be
// resolved exactly once, before it is frozen.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// Options configures resolution.
type Options struct {
	// InheritComments copies documentation from overridden or
	// implemented members onto undocumented ones, and honors the
	// inheritDoc tag.
	InheritComments bool
}

// DefaultOptions returns the standard resolution configuration.
func DefaultOptions() Options {
	return Options{InheritComments: true}
}

// Option mutates Options.
type Option func(*Options)

// WithInheritComments toggles comment inheritance.
func WithInheritComments(inherit bool) Option {
	return func(o *Options) { o.InheritComments = inherit }
}

// Stats summarizes one resolution pass.
type Stats struct {
	ReferencesResolved   int           `json:"references_resolved"`
	ReferencesUnresolved int           `json:"references_unresolved"`
	ReverseEdges         int           `json:"reverse_edges"`
	HierarchiesBuilt     int           `json:"hierarchies_built"`
	MembersLinked        int           `json:"members_linked"`
	CommentsInherited    int           `json:"comments_inherited"`
	Duration             time.Duration `json:"duration"`
}

// Result carries resolution diagnostics and stats. The project itself
// is mutated in place.
type Result struct {
	Diagnostics []model.Diagnostic
	Stats       Stats
}

// Resolver binds the deferred edges of a reflection graph.
//
// Thread Safety:
//
//	A Resolver is stateless and safe for concurrent use across
//	distinct projects. Resolution of one project is single-threaded
//	and must not race with readers of that project.
type Resolver struct {
	opts Options
}

// New creates a Resolver with the given options.
func New(opts ...Option) *Resolver {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{opts: o}
}

// Resolve runs the full post-pass on a converted project.
//
// Description:
//
//	Four ordered phases: reference binding, reverse heritage edges,
//	type hierarchies, member linking (with comment inheritance).
//	Unresolvable references stay flagged and produce diagnostics; no
//	input makes resolution fail.
//
// Inputs:
//
//	ctx - Context for cancellation, checked between phases.
//	project - A converted, unfrozen project. Mutated in place.
//
// Outputs:
//
//	*Result - Diagnostics and stats. Never nil on nil error.
//	error - Only context cancellation, or a frozen project.
func (r *Resolver) Resolve(ctx context.Context, project *model.Project) (*Result, error) {
	ctx, span := startResolveSpan(ctx, project.Name)
	defer span.End()

	if project.Frozen() {
		return nil, fmt.Errorf("resolve: project %q is frozen", project.Name)
	}

	start := time.Now()
	rs := &resolveState{
		project:    project,
		opts:       r.opts,
		unresolved: make(map[string]struct{}),
	}

	phases := []func(){
		rs.resolveReferences,
		rs.buildReverseEdges,
		rs.buildHierarchies,
		rs.linkMembers,
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			recordResolveMetrics(time.Since(start), rs.stats.ReferencesResolved, false)
			return nil, fmt.Errorf("resolution canceled: %w", err)
		}
		phase()
	}

	rs.stats.Duration = time.Since(start)

	slog.Info("resolution complete",
		slog.String("project", project.Name),
		slog.Int("resolved", rs.stats.ReferencesResolved),
		slog.Int("unresolved", rs.stats.ReferencesUnresolved),
		slog.Int("reverse_edges", rs.stats.ReverseEdges),
		slog.Int("hierarchies", rs.stats.HierarchiesBuilt),
		slog.Int("members_linked", rs.stats.MembersLinked),
		slog.Duration("duration", rs.stats.Duration))

	setResolveSpanResult(span, rs.stats.ReferencesResolved, rs.stats.ReferencesUnresolved)
	recordResolveMetrics(rs.stats.Duration, rs.stats.ReferencesResolved, true)

	return &Result{Diagnostics: rs.diagnostics, Stats: rs.stats}, nil
}

// resolveState carries per-run working data.
type resolveState struct {
	project     *model.Project
	opts        Options
	stats       Stats
	diagnostics []model.Diagnostic

	// unresolved dedupes diagnostics per reference name.
	unresolved map[string]struct{}
}

// resolveReferences binds every reference type in the graph to a
// registered symbol, trying the innermost scope first.
func (rs *resolveState) resolveReferences() {
	reg := rs.project.Registry
	reg.EachDeclaration(func(d *model.Declaration) {
		eachDeclarationType(d, func(t model.Type) {
			ref, ok := t.(*model.ReferenceType)
			if !ok || ref.Resolved {
				return
			}
			for _, candidate := range ref.SymbolCandidates() {
				if id, found := reg.LookupSymbol(candidate); found {
					ref.Target = id
					ref.Resolved = true
					rs.stats.ReferencesResolved++
					return
				}
			}
			rs.stats.ReferencesUnresolved++
			if _, seen := rs.unresolved[ref.Name]; seen {
				return
			}
			rs.unresolved[ref.Name] = struct{}{}
			rs.diagnostics = append(rs.diagnostics, model.Diagnostic{
				Kind:    model.DiagUnresolvedReference,
				Message: fmt.Sprintf("cannot resolve type reference %q", ref.Name),
				Symbol:  ref.Name,
			})
		})
	})
}

// eachDeclarationType visits every type reachable from a declaration's
// own slots, including signature parameter and return types.
func eachDeclarationType(d *model.Declaration, fn func(model.Type)) {
	visit := func(t model.Type) {
		if t != nil {
			model.WalkTypes(t, fn)
		}
	}

	visit(d.Type)
	for _, t := range d.ExtendedTypes {
		visit(t)
	}
	for _, t := range d.ImplementedTypes {
		visit(t)
	}
	for _, tp := range d.TypeParameters {
		visit(tp.Constraint)
		visit(tp.Default)
	}

	sigs := make([]*model.Signature, 0, len(d.Signatures)+3)
	sigs = append(sigs, d.Signatures...)
	for _, s := range []*model.Signature{d.IndexSignature, d.GetSignature, d.SetSignature} {
		if s != nil {
			sigs = append(sigs, s)
		}
	}
	for _, sig := range sigs {
		visit(sig.Type)
		for _, p := range sig.Parameters {
			visit(p.Type)
		}
		for _, tp := range sig.TypeParameters {
			visit(tp.Constraint)
			visit(tp.Default)
		}
	}
}

// buildReverseEdges populates extendedBy and implementedBy on heritage
// targets. Forward and reverse edges stay symmetric: one reverse edge
// per resolved forward edge.
func (rs *resolveState) buildReverseEdges() {
	reg := rs.project.Registry
	reg.EachDeclaration(func(d *model.Declaration) {
		if d.Kind != model.KindClass && d.Kind != model.KindInterface {
			return
		}
		back := func(targets []model.Type, add func(*model.Declaration, *model.ReferenceType)) {
			for _, t := range targets {
				ref, ok := t.(*model.ReferenceType)
				if !ok || !ref.Resolved {
					continue
				}
				target, ok := reg.Declaration(ref.Target)
				if !ok {
					continue
				}
				add(target, &model.ReferenceType{
					Name:     d.Name,
					Target:   d.ID,
					Resolved: true,
				})
				rs.stats.ReverseEdges++
			}
		}
		back(d.ExtendedTypes, func(t *model.Declaration, r *model.ReferenceType) {
			t.ExtendedBy = append(t.ExtendedBy, r)
		})
		back(d.ImplementedTypes, func(t *model.Declaration, r *model.ReferenceType) {
			t.ImplementedBy = append(t.ImplementedBy, r)
		})
	})
}

// buildHierarchies linearizes each heritage-participating class or
// interface into a chain of layers: root-most ancestors first, the
// declaration's own layer flagged as the target, then its direct
// subtypes. Exactly one layer per chain carries the target flag.
func (rs *resolveState) buildHierarchies() {
	reg := rs.project.Registry
	reg.EachDeclaration(func(d *model.Declaration) {
		if d.Kind != model.KindClass && d.Kind != model.KindInterface {
			return
		}
		if len(d.ExtendedTypes) == 0 && len(d.ExtendedBy) == 0 {
			return
		}

		// Ancestor layers, innermost first, then reversed.
		var above [][]model.Type
		visited := map[model.ReflectionID]struct{}{d.ID: {}}
		current := d
		for current != nil && len(current.ExtendedTypes) > 0 {
			above = append(above, current.ExtendedTypes)
			parent := primaryParent(reg, current, visited)
			current = parent
		}

		target := &model.HierarchyNode{
			Types:    []model.Type{&model.ReferenceType{Name: d.Name, Target: d.ID, Resolved: true}},
			IsTarget: true,
		}
		if len(d.ExtendedBy) > 0 {
			sub := &model.HierarchyNode{}
			for _, ref := range d.ExtendedBy {
				sub.Types = append(sub.Types, ref)
			}
			target.Next = sub
		}

		head := target
		for _, layer := range above {
			head = &model.HierarchyNode{Types: layer, Next: head}
		}
		d.Hierarchy = head
		rs.stats.HierarchiesBuilt++
	})
}

// primaryParent follows the first resolved extended type to its
// declaration, guarding against heritage cycles.
func primaryParent(reg *model.Registry, d *model.Declaration, visited map[model.ReflectionID]struct{}) *model.Declaration {
	for _, t := range d.ExtendedTypes {
		ref, ok := t.(*model.ReferenceType)
		if !ok || !ref.Resolved {
			continue
		}
		if _, seen := visited[ref.Target]; seen {
			return nil
		}
		visited[ref.Target] = struct{}{}
		if parent, ok := reg.Declaration(ref.Target); ok {
			return parent
		}
	}
	return nil
}

// linkMembers writes the member-level reference slots: a class member
// shadowing an ancestor class member overwrites it, a class member
// matching an implemented interface member implements it, and an
// interface member re-declaring an extended interface's member
// inherits from it. Undocumented members pick up the linked member's
// comment.
func (rs *resolveState) linkMembers() {
	reg := rs.project.Registry
	reg.EachDeclaration(func(d *model.Declaration) {
		switch d.Kind {
		case model.KindClass:
			rs.linkClassMembers(d)
		case model.KindInterface:
			rs.linkInterfaceMembers(d)
		}
	})
}

func (rs *resolveState) linkClassMembers(d *model.Declaration) {
	reg := rs.project.Registry

	ancestors := ancestorChain(reg, d)
	interfaces := heritageTargets(reg, d.ImplementedTypes)

	for _, childID := range d.Children {
		member, ok := reg.Declaration(childID)
		if !ok || member.Kind == model.KindConstructor {
			continue
		}

		for _, ancestor := range ancestors {
			if overridden := namedMember(reg, ancestor, member.Name); overridden != nil {
				member.Overwrites = memberRef(ancestor, overridden)
				rs.stats.MembersLinked++
				rs.inheritComment(member, overridden)
				break
			}
		}

		for _, iface := range interfaces {
			if implemented := namedMember(reg, iface, member.Name); implemented != nil {
				member.ImplementationOf = memberRef(iface, implemented)
				rs.stats.MembersLinked++
				rs.inheritComment(member, implemented)
				break
			}
		}
	}
}

func (rs *resolveState) linkInterfaceMembers(d *model.Declaration) {
	reg := rs.project.Registry
	parents := heritageTargets(reg, d.ExtendedTypes)

	for _, childID := range d.Children {
		member, ok := reg.Declaration(childID)
		if !ok {
			continue
		}
		for _, parent := range parents {
			if inherited := namedMember(reg, parent, member.Name); inherited != nil {
				member.InheritedFrom = memberRef(parent, inherited)
				rs.stats.MembersLinked++
				rs.inheritComment(member, inherited)
				break
			}
		}
	}
}

// inheritComment copies the source member's comment when the local one
// is empty or explicitly requests inheritance.
func (rs *resolveState) inheritComment(member, source *model.Declaration) {
	if !rs.opts.InheritComments || source.Comment.IsEmpty() {
		return
	}
	if member.Comment.IsEmpty() || member.Comment.HasTag("inheritdoc") {
		member.Comment = source.Comment.Clone()
		rs.stats.CommentsInherited++
	}
}

// ancestorChain returns the class ancestors nearest-first, following
// primary extends edges with a cycle guard.
func ancestorChain(reg *model.Registry, d *model.Declaration) []*model.Declaration {
	var out []*model.Declaration
	visited := map[model.ReflectionID]struct{}{d.ID: {}}
	current := d
	for {
		parent := primaryParent(reg, current, visited)
		if parent == nil {
			return out
		}
		out = append(out, parent)
		current = parent
	}
}

// heritageTargets maps resolved heritage references to declarations.
func heritageTargets(reg *model.Registry, types []model.Type) []*model.Declaration {
	var out []*model.Declaration
	for _, t := range types {
		ref, ok := t.(*model.ReferenceType)
		if !ok || !ref.Resolved {
			continue
		}
		if decl, ok := reg.Declaration(ref.Target); ok {
			out = append(out, decl)
		}
	}
	return out
}

// namedMember returns the container's member with the given name.
func namedMember(reg *model.Registry, container *model.Declaration, name string) *model.Declaration {
	id := container.FirstChildNamed(name)
	if id == model.NoReflection {
		return nil
	}
	member, ok := reg.Declaration(id)
	if !ok {
		return nil
	}
	return member
}

// memberRef builds a resolved reference to a member of a named owner.
func memberRef(owner, member *model.Declaration) *model.ReferenceType {
	return &model.ReferenceType{
		Name:     owner.Name + "." + member.Name,
		Target:   member.ID,
		Resolved: true,
	}
}
