// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidewaterhq/docgraph/services/docgraph/config"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	cfg.Storage.Enabled = false
	return cfg
}

func writeSource(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestServiceBuild(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "animal.ts", `
/** Base for every animal. */
export class Animal {
  name: string;
  speak(): string { return "..."; }
}
`)
	writeSource(t, root, "dog.ts", `
export class Dog extends Animal {
  speak(): string { return "woof"; }
}
`)

	svc := NewService(testConfig(t), nil, nil)
	out, err := svc.Build(context.Background(), "zoo", root)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if out.FilesParsed != 2 {
		t.Errorf("FilesParsed = %d, want 2", out.FilesParsed)
	}
	if len(out.ParseErrors) != 0 {
		t.Errorf("ParseErrors = %v, want none", out.ParseErrors)
	}
	if !out.Project.Frozen() {
		t.Error("built project is not frozen")
	}

	dogs := out.Index.ByName("Dog")
	if len(dogs) != 1 {
		t.Fatalf("ByName(Dog) returned %d declarations", len(dogs))
	}
	dog := dogs[0]
	if len(dog.ExtendedTypes) != 1 {
		t.Fatalf("extended types = %d, want 1", len(dog.ExtendedTypes))
	}
	ref, ok := dog.ExtendedTypes[0].(*model.ReferenceType)
	if !ok || !ref.Resolved {
		t.Error("Dog heritage was not resolved")
	}

	animals := out.Index.ByName("Animal")
	if len(animals) != 1 || len(animals[0].ExtendedBy) != 1 {
		t.Error("Animal is missing its extendedBy edge")
	}
}

func TestServiceBuildCache(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.ts", "export function one(): number { return 1; }\n")

	svc := NewService(testConfig(t), nil, nil)

	first, err := svc.Build(context.Background(), "p", root)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	second, err := svc.Build(context.Background(), "p", root)
	if err != nil {
		t.Fatalf("second Build() error: %v", err)
	}
	if first.Project.RunID == second.Project.RunID {
		t.Error("distinct builds share a run id")
	}

	t.Run("get by run id", func(t *testing.T) {
		got, ok := svc.Get(first.Project.RunID)
		if !ok || got != first {
			t.Error("Get(runID) did not return the cached build")
		}
	})

	t.Run("empty id returns latest", func(t *testing.T) {
		got, ok := svc.Get("")
		if !ok || got != second {
			t.Error("Get(\"\") did not return the latest build")
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		builds := svc.List()
		if len(builds) != 2 {
			t.Fatalf("List() returned %d builds, want 2", len(builds))
		}
		if builds[0] != second {
			t.Error("List()[0] is not the newest build")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, ok := svc.Get("no-such-run"); ok {
			t.Error("Get returned a build for an unknown run id")
		}
	})
}

func TestServiceBuildSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "keep.ts", "export const kept = 1;\n")
	writeSource(t, root, "node_modules/dep/index.ts", "export const dropped = 1;\n")

	svc := NewService(testConfig(t), nil, nil)
	out, err := svc.Build(context.Background(), "p", root)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if out.FilesParsed != 1 {
		t.Errorf("FilesParsed = %d, want 1", out.FilesParsed)
	}
	if hits := out.Index.ByName("dropped"); len(hits) != 0 {
		t.Error("declaration from an excluded directory was converted")
	}
}

func TestServiceBuildEmptyTree(t *testing.T) {
	svc := NewService(testConfig(t), nil, nil)
	if _, err := svc.Build(context.Background(), "p", t.TempDir()); err == nil {
		t.Error("Build over an empty tree did not fail")
	}
}

func TestServiceBuildToleratesBadFile(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "good.ts", "export const ok = 1;\n")
	writeSource(t, root, "bad.ts", string([]byte{0xff, 0xfe, 0xfd}))

	svc := NewService(testConfig(t), nil, nil)
	out, err := svc.Build(context.Background(), "p", root)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(out.ParseErrors) != 1 {
		t.Fatalf("ParseErrors = %v, want one entry", out.ParseErrors)
	}
	if hits := out.Index.ByName("ok"); len(hits) != 1 {
		t.Error("healthy file was not converted")
	}
}

func TestMatchesGlob(t *testing.T) {
	cases := []struct {
		name  string
		globs []string
		rel   string
		want  bool
	}{
		{"recursive ts", []string{"**/*.ts"}, "src/deep/a.ts", true},
		{"recursive tsx", []string{"**/*.ts", "**/*.tsx"}, "ui/App.tsx", true},
		{"top level", []string{"**/*.ts"}, "a.ts", true},
		{"wrong extension", []string{"**/*.ts"}, "notes/readme.md", false},
		{"exact base", []string{"index.ts"}, "index.ts", true},
		{"no globs matches all", nil, "anything.ts", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesGlob(tc.globs, tc.rel); got != tc.want {
				t.Errorf("matchesGlob(%v, %q) = %v, want %v", tc.globs, tc.rel, got, tc.want)
			}
		})
	}
}

func TestServiceBuildFixtureProject(t *testing.T) {
	root := filepath.Join("..", "..", "test", "fixtures", "sample-ts-project")
	if _, err := os.Stat(root); err != nil {
		t.Skipf("fixture unavailable: %v", err)
	}

	svc := NewService(testConfig(t), nil, nil)
	out, err := svc.Build(context.Background(), "shapes", root)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	shapes := out.Index.ByName("Shape")
	if len(shapes) != 1 {
		t.Fatalf("ByName(Shape) returned %d declarations", len(shapes))
	}
	if len(shapes[0].ExtendedBy) != 2 {
		t.Errorf("Shape.ExtendedBy has %d edges, want 2", len(shapes[0].ExtendedBy))
	}

	regs := out.Index.ByName("register")
	if len(regs) != 1 || len(regs[0].Signatures) != 3 {
		t.Errorf("register overloads did not merge into one declaration with 3 signatures")
	}

	if hits := out.Index.ByName("registry"); len(hits) != 1 || hits[0].Kind != model.KindNamespace {
		t.Error("namespace registry was not converted")
	}
}

func TestServiceBuildRecordsDiagnostics(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "conflict.ts", `
export function Thing(): void {}
export class Thing {}
export class Orphan extends Missing {}
`)

	svc := NewService(testConfig(t), nil, nil)
	out, err := svc.Build(context.Background(), "p", root)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	var merge, unresolved bool
	for _, d := range out.Diagnostics {
		switch d.Kind {
		case model.DiagMergeConflict:
			merge = true
		case model.DiagUnresolvedReference:
			unresolved = true
		}
	}
	if !merge {
		t.Error("kind conflict did not produce a merge diagnostic")
	}
	if !unresolved {
		t.Error("missing base class did not produce an unresolved diagnostic")
	}
}
