// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package serialize

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tidewaterhq/docgraph/services/docgraph/converter"
	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
	"github.com/tidewaterhq/docgraph/services/docgraph/resolver"
)

const testSource = `
/** An animal. */
export class Animal {
	name: string;
	speak(volume: number): void {}
}

export class Dog extends Animal {
	speak(volume: number): void {}
	get tag(): string { return ""; }
	set tag(v: string) {}
}

export function make(kind: string): Animal;
export function make(): Animal;
export function make(kind?: string): Animal {
	return new Animal();
}
`

func buildTestProject(t *testing.T) (*model.Project, []model.Diagnostic) {
	t.Helper()

	parsed, err := frontend.NewTypeScriptParser().Parse(context.Background(), []byte(testSource), "zoo.ts")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	conv, err := converter.NewConverter().Convert(context.Background(), "zoo", "/src", []*frontend.ParseResult{parsed})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	res, err := resolver.New().Resolve(context.Background(), conv.Project)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return conv.Project, append(conv.Diagnostics, res.Diagnostics...)
}

func TestRoundTrip(t *testing.T) {
	project, diags := buildTestProject(t)
	project.Freeze()

	data, err := Encode(project, diags)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, _, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	t.Run("head fields", func(t *testing.T) {
		if decoded.Name != project.Name {
			t.Errorf("name = %q, want %q", decoded.Name, project.Name)
		}
		if decoded.RunID != project.RunID {
			t.Errorf("run id = %q, want %q", decoded.RunID, project.RunID)
		}
		if !decoded.Frozen() {
			t.Error("decoded project must be frozen")
		}
		if decoded.Registry.Len() != project.Registry.Len() {
			t.Errorf("reflections = %d, want %d", decoded.Registry.Len(), project.Registry.Len())
		}
	})

	t.Run("overload set", func(t *testing.T) {
		id := decoded.FirstChildNamed("make")
		if id == model.NoReflection {
			t.Fatal("make missing")
		}
		fn, ok := decoded.Registry.Declaration(id)
		if !ok {
			t.Fatal("make is not a declaration")
		}
		if len(fn.Signatures) != 3 {
			t.Errorf("signatures = %d, want 3", len(fn.Signatures))
		}
	})

	t.Run("heritage and slots", func(t *testing.T) {
		dogID := decoded.FirstChildNamed("Dog")
		dog, ok := decoded.Registry.Declaration(dogID)
		if !ok {
			t.Fatal("Dog missing")
		}
		if len(dog.ExtendedTypes) != 1 {
			t.Fatalf("extended = %d, want 1", len(dog.ExtendedTypes))
		}
		ref, ok := dog.ExtendedTypes[0].(*model.ReferenceType)
		if !ok || !ref.Resolved {
			t.Fatalf("extends = %+v, want resolved reference", dog.ExtendedTypes[0])
		}

		animal, ok := decoded.Registry.Declaration(ref.Target)
		if !ok || animal.Name != "Animal" {
			t.Fatalf("target = %+v, want Animal", animal)
		}
		if len(animal.ExtendedBy) != 1 || animal.ExtendedBy[0].Name != "Dog" {
			t.Errorf("extendedBy = %+v, want Dog", animal.ExtendedBy)
		}

		speakID := dog.FirstChildNamed("speak")
		speak, ok := decoded.Registry.Declaration(speakID)
		if !ok || speak.Overwrites == nil {
			t.Fatal("Dog.speak overwrites slot lost")
		}
		if dog.Hierarchy == nil {
			t.Fatal("hierarchy lost")
		}
		targets := 0
		for n := dog.Hierarchy; n != nil; n = n.Next {
			if n.IsTarget {
				targets++
			}
		}
		if targets != 1 {
			t.Errorf("target layers = %d, want 1", targets)
		}
	})

	t.Run("accessor", func(t *testing.T) {
		dog, _ := decoded.Registry.Declaration(decoded.FirstChildNamed("Dog"))
		tagID := dog.FirstChildNamed("tag")
		tag, ok := decoded.Registry.Declaration(tagID)
		if !ok {
			t.Fatal("accessor missing")
		}
		if tag.GetSignature == nil || tag.SetSignature == nil {
			t.Error("accessor signatures lost")
		}
	})

	t.Run("symbols", func(t *testing.T) {
		id, ok := decoded.Registry.LookupSymbol("Dog.speak")
		if !ok || id == model.NoReflection {
			t.Error("symbol map not rebuilt")
		}
	})

	t.Run("comment", func(t *testing.T) {
		animal, _ := decoded.Registry.Declaration(decoded.FirstChildNamed("Animal"))
		if animal.Comment == nil || animal.Comment.Summary != "An animal." {
			t.Errorf("comment = %+v", animal.Comment)
		}
	})
}

func TestAbsentFieldsStayAbsent(t *testing.T) {
	project, diags := buildTestProject(t)

	data, err := Encode(project, diags)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw struct {
		Reflections []map[string]json.RawMessage `json:"reflections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, r := range raw.Reflections {
		for _, field := range []string{"comment", "type", "signatures", "extended_types", "type_hierarchy"} {
			if v, present := r[field]; present && string(v) == "null" {
				t.Errorf("field %q serialized as null, want absent", field)
			}
		}
	}
}

func TestGraphHashIsStablePerContent(t *testing.T) {
	project, diags := buildTestProject(t)

	a, err := Encode(project, diags)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(project, diags)
	if err != nil {
		t.Fatal(err)
	}

	hashOf := func(data []byte) string {
		var doc SerializedProject
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatal(err)
		}
		return doc.GraphHash
	}
	if hashOf(a) == "" || hashOf(a) != hashOf(b) {
		t.Errorf("graph hash unstable: %q vs %q", hashOf(a), hashOf(b))
	}
}

func TestDecodeRejectsIncompatibleSchema(t *testing.T) {
	project, diags := buildTestProject(t)
	data, err := Encode(project, diags)
	if err != nil {
		t.Fatal(err)
	}

	bad := strings.Replace(string(data), `"schema_version":"1.0.0"`, `"schema_version":"2.0.0"`, 1)
	if _, _, err := Decode([]byte(bad)); err == nil {
		t.Fatal("expected schema version error")
	}
}
