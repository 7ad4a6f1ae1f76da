// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRegistryAllocate(t *testing.T) {
	r := NewRegistry()

	seen := make(map[ReflectionID]bool)
	for i := 0; i < 10; i++ {
		d := &Declaration{}
		id := r.Allocate(d)
		if seen[id] {
			t.Fatalf("id %d allocated twice", id)
		}
		seen[id] = true
		if d.ID != id {
			t.Errorf("Allocate did not write the id back: %d != %d", d.ID, id)
		}
	}

	ids := r.IDs()
	if ids[0] != IDBase {
		t.Errorf("first id = %d, want %d", ids[0], IDBase)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[i-1]+1 {
			t.Errorf("ids not dense at index %d: %d after %d", i, ids[i], ids[i-1])
		}
	}
	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}
}

func TestRegistrySymbols(t *testing.T) {
	r := NewRegistry()
	d := &Declaration{}
	id := r.Allocate(d)

	r.RegisterSymbol("zoo.Animal", id)
	r.RegisterSymbol("", id)

	if got, ok := r.LookupSymbol("zoo.Animal"); !ok || got != id {
		t.Errorf("LookupSymbol(zoo.Animal) = (%d, %v)", got, ok)
	}
	if _, ok := r.LookupSymbol(""); ok {
		t.Error("empty symbol id was registered")
	}
	if r.SymbolCount() != 1 {
		t.Errorf("SymbolCount() = %d, want 1", r.SymbolCount())
	}
}

func TestContainerChildren(t *testing.T) {
	r := NewRegistry()
	parent := &Declaration{}
	parent.Kind = KindClass
	r.Allocate(parent)

	a := &Declaration{}
	a.Name = "speak"
	r.Allocate(a)
	b := &Declaration{}
	b.Name = "speak"
	r.Allocate(b)

	a.Parent = parent.ID
	b.Parent = parent.ID
	parent.AddChild(a)
	parent.AddChild(b)

	if got := parent.ChildrenNamed("speak"); len(got) != 2 {
		t.Errorf("ChildrenNamed returned %d ids, want 2", len(got))
	}
	if got := parent.FirstChildNamed("speak"); got != a.ID {
		t.Errorf("FirstChildNamed = %d, want %d", got, a.ID)
	}
	if got := parent.FirstChildNamed("missing"); got != NoReflection {
		t.Errorf("FirstChildNamed(missing) = %d, want NoReflection", got)
	}
}

func TestKindRoundTrip(t *testing.T) {
	for k, name := range kindNames {
		data, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		var back Kind
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", string(data), err)
		}
		if back != k {
			t.Errorf("kind %s did not round-trip", name)
		}
	}

	if _, err := ParseKind("NoSuchKind"); err == nil {
		t.Error("ParseKind accepted an unknown name")
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindClass.IsContainer() || !KindNamespace.IsContainer() {
		t.Error("class and namespace must be containers")
	}
	if KindVariable.IsContainer() {
		t.Error("variable is not a container")
	}
	if !KindCallSignature.IsSignature() {
		t.Error("call signature must be a signature kind")
	}
	if KindClass.IsSignature() {
		t.Error("class is not a signature kind")
	}
}

func TestFlags(t *testing.T) {
	fl := Flags(0).With(FlagStatic).With(FlagReadonly)

	if !fl.Has(FlagStatic) || !fl.Has(FlagReadonly) {
		t.Error("With did not set the requested bits")
	}
	if fl.Has(FlagAbstract) {
		t.Error("Has reported an unset bit")
	}

	data, err := json.Marshal(fl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Flags
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal %s: %v", string(data), err)
	}
	if back != fl {
		t.Errorf("flags did not round-trip: %v -> %s -> %v", fl, string(data), back)
	}
}

func TestCommentNilSafety(t *testing.T) {
	var c *Comment
	if !c.IsEmpty() {
		t.Error("nil comment must be empty")
	}
	if c.HasTag("deprecated") {
		t.Error("nil comment has no tags")
	}
	if c.Clone() != nil {
		t.Error("Clone of nil must be nil")
	}
}

func TestCommentClone(t *testing.T) {
	c := &Comment{
		Summary: "Makes a sound.",
		Tags:    []CommentTag{{Name: "returns", Content: "the sound"}},
	}
	clone := c.Clone()
	if !reflect.DeepEqual(c, clone) {
		t.Fatal("clone differs from the original")
	}
	clone.Tags[0].Content = "changed"
	if c.Tags[0].Content != "the sound" {
		t.Error("clone shares tag storage with the original")
	}
}

func TestReferenceSymbolCandidates(t *testing.T) {
	ref := &ReferenceType{Name: "Animal", ScopePath: []string{"zoo", "exhibits"}}
	got := ref.SymbolCandidates()
	want := []string{"zoo.exhibits.Animal", "zoo.Animal", "Animal"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SymbolCandidates() = %v, want %v", got, want)
	}
}

func TestWalkTypes(t *testing.T) {
	inner := &ReferenceType{Name: "T"}
	typ := &UnionType{Types: []Type{
		&IntrinsicType{Name: "string"},
		&ArrayType{Element: &TupleType{Elements: []Type{inner}}},
	}}

	var refs int
	WalkTypes(typ, func(t Type) {
		if _, ok := t.(*ReferenceType); ok {
			refs++
		}
	})
	if refs != 1 {
		t.Errorf("WalkTypes visited %d references, want 1", refs)
	}
}

func TestProjectFreeze(t *testing.T) {
	p := NewProject("demo", "/src/demo")
	if p.Frozen() {
		t.Fatal("new project must not be frozen")
	}
	if p.ID != IDBase {
		t.Errorf("project reflection id = %d, want %d", p.ID, IDBase)
	}
	p.Freeze()
	if !p.Frozen() {
		t.Error("Freeze did not mark the project frozen")
	}
}

func TestRecordFileReflection(t *testing.T) {
	p := NewProject("demo", "/src/demo")
	p.RecordFileReflection("a.ts", 2)
	p.RecordFileReflection("a.ts", 2)
	p.RecordFileReflection("a.ts", 3)
	p.RecordFileReflection("b.ts", 4)

	if !reflect.DeepEqual(p.FileOrder, []string{"a.ts", "b.ts"}) {
		t.Errorf("FileOrder = %v", p.FileOrder)
	}
	if !reflect.DeepEqual(p.Files["a.ts"], []ReflectionID{2, 3}) {
		t.Errorf("Files[a.ts] = %v, duplicate id was not collapsed", p.Files["a.ts"])
	}
}
