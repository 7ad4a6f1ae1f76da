// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"context"
	"strings"
	"testing"

	"github.com/tidewaterhq/docgraph/services/docgraph/converter"
	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

func buildProject(t *testing.T, sources map[string]string) (*model.Project, *Result) {
	t.Helper()

	parser := frontend.NewTypeScriptParser()
	var files []*frontend.ParseResult
	// Deterministic order matters for merge assertions; sort by path.
	paths := make([]string, 0, len(sources))
	for path := range sources {
		paths = append(paths, path)
	}
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			if paths[j] < paths[i] {
				paths[i], paths[j] = paths[j], paths[i]
			}
		}
	}
	for _, path := range paths {
		parsed, err := parser.Parse(context.Background(), []byte(sources[path]), path)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		files = append(files, parsed)
	}

	conv, err := converter.NewConverter().Convert(context.Background(), "test", "/src", files)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	result, err := New().Resolve(context.Background(), conv.Project)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return conv.Project, result
}

func topDecl(t *testing.T, p *model.Project, name string) *model.Declaration {
	t.Helper()
	id := p.FirstChildNamed(name)
	if id == model.NoReflection {
		t.Fatalf("no top-level declaration %q", name)
	}
	d, ok := p.Registry.Declaration(id)
	if !ok {
		t.Fatalf("%q is not a declaration", name)
	}
	return d
}

func member(t *testing.T, p *model.Project, parent *model.Declaration, name string) *model.Declaration {
	t.Helper()
	id := parent.FirstChildNamed(name)
	if id == model.NoReflection {
		t.Fatalf("no member %q in %q", name, parent.Name)
	}
	d, ok := p.Registry.Declaration(id)
	if !ok {
		t.Fatalf("member %q is not a declaration", name)
	}
	return d
}

func TestForwardReferenceResolves(t *testing.T) {
	// Dog extends Animal with Animal declared later in the file; the
	// reference must stay deferred until the post-pass.
	project, result := buildProject(t, map[string]string{
		"zoo.ts": `
export class Dog extends Animal {}
export class Animal {}
`,
	})

	dog := topDecl(t, project, "Dog")
	animal := topDecl(t, project, "Animal")

	ref, ok := dog.ExtendedTypes[0].(*model.ReferenceType)
	if !ok {
		t.Fatalf("extends = %T, want reference", dog.ExtendedTypes[0])
	}
	if !ref.Resolved || ref.Target != animal.ID {
		t.Errorf("reference resolved=%v target=%d, want target %d", ref.Resolved, ref.Target, animal.ID)
	}
	if result.Stats.ReferencesUnresolved != 0 {
		t.Errorf("unresolved = %d, want 0", result.Stats.ReferencesUnresolved)
	}
}

func TestReverseEdgesAreSymmetric(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"h.ts": `
export class Animal {}
export interface Pet {}
export class Dog extends Animal implements Pet {}
export class Cat extends Animal {}
`,
	})

	animal := topDecl(t, project, "Animal")
	pet := topDecl(t, project, "Pet")
	dog := topDecl(t, project, "Dog")

	if len(animal.ExtendedBy) != 2 {
		t.Fatalf("Animal extendedBy = %d, want 2", len(animal.ExtendedBy))
	}
	names := map[string]bool{}
	for _, ref := range animal.ExtendedBy {
		names[ref.Name] = true
		if !ref.Resolved {
			t.Errorf("reverse edge %q not resolved", ref.Name)
		}
	}
	if !names["Dog"] || !names["Cat"] {
		t.Errorf("extendedBy names = %v, want Dog and Cat", names)
	}

	if len(pet.ImplementedBy) != 1 || pet.ImplementedBy[0].Target != dog.ID {
		t.Errorf("Pet implementedBy = %+v, want Dog", pet.ImplementedBy)
	}
}

func TestHierarchyHasExactlyOneTargetLayer(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"chain.ts": `
export class A {}
export class B extends A {}
export class C extends B {}
`,
	})

	b := topDecl(t, project, "B")
	if b.Hierarchy == nil {
		t.Fatal("B has no hierarchy")
	}

	var layers []*model.HierarchyNode
	for n := b.Hierarchy; n != nil; n = n.Next {
		layers = append(layers, n)
	}
	if len(layers) != 3 {
		t.Fatalf("layers = %d, want 3 (ancestor, target, subtype)", len(layers))
	}

	targets := 0
	for _, l := range layers {
		if l.IsTarget {
			targets++
		}
	}
	if targets != 1 {
		t.Fatalf("target layers = %d, want exactly 1", targets)
	}
	if !layers[1].IsTarget {
		t.Error("middle layer should be the target")
	}

	top, ok := layers[0].Types[0].(*model.ReferenceType)
	if !ok || top.Name != "A" {
		t.Errorf("root layer = %+v, want A", layers[0].Types)
	}
	sub, ok := layers[2].Types[0].(*model.ReferenceType)
	if !ok || sub.Name != "C" {
		t.Errorf("subtype layer = %+v, want C", layers[2].Types)
	}
}

func TestUnresolvedReferenceStaysFlagged(t *testing.T) {
	project, result := buildProject(t, map[string]string{
		"u.ts": `export let x: Missing;`,
	})

	x := topDecl(t, project, "x")
	ref, ok := x.Type.(*model.ReferenceType)
	if !ok {
		t.Fatalf("type = %T, want reference", x.Type)
	}
	if ref.Resolved {
		t.Error("reference to missing symbol must stay unresolved")
	}

	var flagged bool
	for _, d := range result.Diagnostics {
		if d.Kind == model.DiagUnresolvedReference && strings.Contains(d.Message, "Missing") {
			flagged = true
		}
	}
	if !flagged {
		t.Error("expected unresolved_reference diagnostic")
	}
}

func TestScopedResolutionPrefersInnermost(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"s.ts": `
export class Animal {}
export namespace zoo {
	export class Animal {}
	export class Keeper {
		pet: Animal;
	}
}
`,
	})

	zoo := topDecl(t, project, "zoo")
	keeper := member(t, project, zoo, "Keeper")
	inner := member(t, project, zoo, "Animal")
	pet := member(t, project, keeper, "pet")

	ref, ok := pet.Type.(*model.ReferenceType)
	if !ok || !ref.Resolved {
		t.Fatalf("pet type = %+v, want resolved reference", pet.Type)
	}
	if ref.Target != inner.ID {
		t.Errorf("target = %d, want namespace-local Animal %d", ref.Target, inner.ID)
	}
}

func TestOverwritesAndCommentInheritance(t *testing.T) {
	project, result := buildProject(t, map[string]string{
		"o.ts": `
export class Base {
	/** Makes a noise. */
	speak(): void {}
}
export class Derived extends Base {
	speak(): void {}
}
`,
	})

	base := topDecl(t, project, "Base")
	derived := topDecl(t, project, "Derived")
	baseSpeak := member(t, project, base, "speak")
	speak := member(t, project, derived, "speak")

	if speak.Overwrites == nil {
		t.Fatal("overwrites not set")
	}
	if speak.Overwrites.Target != baseSpeak.ID {
		t.Errorf("overwrites target = %d, want %d", speak.Overwrites.Target, baseSpeak.ID)
	}
	if speak.Overwrites.Name != "Base.speak" {
		t.Errorf("overwrites name = %q", speak.Overwrites.Name)
	}

	if speak.Comment.Summary != "Makes a noise." {
		t.Errorf("comment = %q, want inherited summary", speak.Comment.Summary)
	}
	if result.Stats.CommentsInherited == 0 {
		t.Error("expected comments inherited in stats")
	}
}

func TestImplementationOf(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"i.ts": `
export interface Pet {
	feed(): void;
}
export class Dog implements Pet {
	feed(): void {}
}
`,
	})

	pet := topDecl(t, project, "Pet")
	dog := topDecl(t, project, "Dog")
	ifaceFeed := member(t, project, pet, "feed")
	feed := member(t, project, dog, "feed")

	if feed.ImplementationOf == nil {
		t.Fatal("implementationOf not set")
	}
	if feed.ImplementationOf.Target != ifaceFeed.ID {
		t.Errorf("target = %d, want %d", feed.ImplementationOf.Target, ifaceFeed.ID)
	}
}

func TestInheritedFromOnInterfaces(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"n.ts": `
export interface Closeable {
	close(): void;
}
export interface Resource extends Closeable {
	close(): void;
}
`,
	})

	closeable := topDecl(t, project, "Closeable")
	resource := topDecl(t, project, "Resource")
	parentClose := member(t, project, closeable, "close")
	childClose := member(t, project, resource, "close")

	if childClose.InheritedFrom == nil {
		t.Fatal("inheritedFrom not set")
	}
	if childClose.InheritedFrom.Target != parentClose.ID {
		t.Errorf("target = %d, want %d", childClose.InheritedFrom.Target, parentClose.ID)
	}
}

func TestLocalCommentWinsWithoutInheritDoc(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"c.ts": `
export class Base {
	/** Base docs. */
	run(): void {}
}
export class Sub extends Base {
	/** Sub docs. */
	run(): void {}
}
`,
	})

	sub := topDecl(t, project, "Sub")
	run := member(t, project, sub, "run")
	if run.Comment.Summary != "Sub docs." {
		t.Errorf("comment = %q, local documentation must win", run.Comment.Summary)
	}
}

func TestResolveRejectsFrozenProject(t *testing.T) {
	project, _ := buildProject(t, map[string]string{"f.ts": `export class A {}`})
	project.Freeze()

	if _, err := New().Resolve(context.Background(), project); err == nil {
		t.Fatal("expected error resolving a frozen project")
	}
}

func TestHeritageCycleDoesNotHang(t *testing.T) {
	project, _ := buildProject(t, map[string]string{
		"cycle.ts": `
export interface A extends B {}
export interface B extends A {}
`,
	})

	a := topDecl(t, project, "A")
	if a.Hierarchy == nil {
		t.Fatal("hierarchy missing")
	}
	// Bounded chain despite the cycle.
	count := 0
	for n := a.Hierarchy; n != nil; n = n.Next {
		count++
		if count > 10 {
			t.Fatal("hierarchy chain unbounded")
		}
	}
}
