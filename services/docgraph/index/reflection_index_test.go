// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package index

import (
	"context"
	"testing"

	"github.com/tidewaterhq/docgraph/services/docgraph/converter"
	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

func frozenProject(t *testing.T) *model.Project {
	t.Helper()

	src := `
export class Animal { speak(): void {} }
export class Dog extends Animal {}
export interface Pet {}
export function makeAnimal(): Animal { return new Animal(); }
`
	parsed, err := frontend.NewTypeScriptParser().Parse(context.Background(), []byte(src), "zoo.ts")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	conv, err := converter.NewConverter().Convert(context.Background(), "zoo", "/src", []*frontend.ParseResult{parsed})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	conv.Project.Freeze()
	return conv.Project
}

func TestFromProjectRequiresFrozen(t *testing.T) {
	src := `export class A {}`
	parsed, err := frontend.NewTypeScriptParser().Parse(context.Background(), []byte(src), "a.ts")
	if err != nil {
		t.Fatal(err)
	}
	conv, err := converter.NewConverter().Convert(context.Background(), "p", "/src", []*frontend.ParseResult{parsed})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := FromProject(conv.Project); err == nil {
		t.Fatal("expected error for unfrozen project")
	}
}

func TestLookups(t *testing.T) {
	project := frozenProject(t)
	idx, err := FromProject(project)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	t.Run("by name", func(t *testing.T) {
		dogs := idx.ByName("Dog")
		if len(dogs) != 1 || dogs[0].Kind != model.KindClass {
			t.Errorf("ByName(Dog) = %+v", dogs)
		}
	})

	t.Run("by id", func(t *testing.T) {
		dogs := idx.ByName("Dog")
		got, ok := idx.ByID(dogs[0].ID)
		if !ok || got.Name != "Dog" {
			t.Errorf("ByID = %+v", got)
		}
	})

	t.Run("by kind", func(t *testing.T) {
		classes := idx.ByKind(model.KindClass)
		if len(classes) != 2 {
			t.Errorf("classes = %d, want 2", len(classes))
		}
		ifaces := idx.ByKind(model.KindInterface)
		if len(ifaces) != 1 || ifaces[0].Name != "Pet" {
			t.Errorf("interfaces = %+v", ifaces)
		}
	})

	t.Run("by file", func(t *testing.T) {
		inFile := idx.ByFile("zoo.ts")
		if len(inFile) == 0 {
			t.Error("no declarations indexed for zoo.ts")
		}
	})
}

func TestSearch(t *testing.T) {
	project := frozenProject(t)
	idx, err := FromProject(project)
	if err != nil {
		t.Fatal(err)
	}

	hits := idx.Search("animal", 0)
	names := map[string]bool{}
	for _, h := range hits {
		names[h.Name] = true
	}
	if !names["Animal"] || !names["makeAnimal"] {
		t.Errorf("search hits = %v, want Animal and makeAnimal", names)
	}

	limited := idx.Search("animal", 1)
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}
	if got := idx.Search("", 10); got != nil {
		t.Errorf("empty query = %+v, want nil", got)
	}
}

func TestCapacityLimit(t *testing.T) {
	project := frozenProject(t)
	if _, err := FromProject(project, WithMaxReflections(1)); err == nil {
		t.Fatal("expected capacity error")
	}
}
