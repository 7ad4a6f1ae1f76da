// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"testing"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tidewaterhq/docgraph/services/docgraph/converter"
	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
	"github.com/tidewaterhq/docgraph/services/docgraph/resolver"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("opening badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSnapshotStore(db, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

func projectFromSource(t *testing.T, src string) *model.Project {
	t.Helper()
	parsed, err := frontend.NewTypeScriptParser().Parse(context.Background(), []byte(src), "main.ts")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	conv, err := converter.NewConverter().Convert(context.Background(), "demo", "/src/demo", []*frontend.ParseResult{parsed})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := resolver.New().Resolve(context.Background(), conv.Project); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	conv.Project.Freeze()
	return conv.Project
}

func TestNewSnapshotStoreRequiresDB(t *testing.T) {
	if _, err := NewSnapshotStore(nil, nil); err == nil {
		t.Error("NewSnapshotStore accepted a nil db")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	project := projectFromSource(t, `
export class Widget {
	render(): void {}
}
`)

	meta, err := s.Save(ctx, project, nil, "initial")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID == "" || meta.GraphHash == "" {
		t.Fatalf("incomplete metadata: %+v", meta)
	}
	if meta.CompressedSize <= 0 || meta.CompressedSize >= meta.UncompressedSize {
		t.Errorf("compression sizes look wrong: %d / %d", meta.CompressedSize, meta.UncompressedSize)
	}

	loaded, loadedMeta, err := s.Load(ctx, meta.SnapshotID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loadedMeta.GraphHash != meta.GraphHash {
		t.Errorf("graph hash mismatch: %q vs %q", loadedMeta.GraphHash, meta.GraphHash)
	}
	if loaded.FirstChildNamed("Widget") == model.NoReflection {
		t.Error("Widget missing from loaded project")
	}
	if !loaded.Frozen() {
		t.Error("loaded project must be frozen")
	}
}

func TestLoadLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	project := projectFromSource(t, `export const a = 1;`)

	if _, err := s.Save(ctx, project, nil, "first"); err != nil {
		t.Fatal(err)
	}
	second, err := s.Save(ctx, project, nil, "second")
	if err != nil {
		t.Fatal(err)
	}

	_, meta, err := s.LoadLatest(ctx, ProjectHash(project.ProjectRoot))
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if meta.SnapshotID != second.SnapshotID {
		t.Errorf("latest = %q, want %q", meta.SnapshotID, second.SnapshotID)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	project := projectFromSource(t, `export const a = 1;`)

	for _, label := range []string{"one", "two", "three"} {
		if _, err := s.Save(ctx, project, nil, label); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := s.List(ctx, ProjectHash(project.ProjectRoot), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(metas))
	}
	for i := 1; i < len(metas); i++ {
		if metas[i-1].CreatedAt < metas[i].CreatedAt {
			t.Error("list is not newest first")
		}
	}

	limited, err := s.List(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited list = %d, want 2", len(limited))
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	project := projectFromSource(t, `export const a = 1;`)

	meta, err := s.Save(ctx, project, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, meta.SnapshotID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.Load(ctx, meta.SnapshotID); err == nil {
		t.Fatal("expected load failure after delete")
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	s := openTestStore(t)
	if _, _, err := s.Load(context.Background(), "no-such-id"); err != ErrSnapshotNotFound {
		t.Fatalf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestDiff(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := projectFromSource(t, `
export class Widget {
	render(): void {}
}
export const removedSoon = 1;
`)
	target := projectFromSource(t, `
export class Widget {
	render(): void {}
	resize(): void {}
}
export const added = 2;
`)

	baseMeta, err := s.Save(ctx, base, nil, "base")
	if err != nil {
		t.Fatal(err)
	}
	targetMeta, err := s.Save(ctx, target, nil, "target")
	if err != nil {
		t.Fatal(err)
	}

	diff, err := s.Diff(ctx, baseMeta.SnapshotID, targetMeta.SnapshotID)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if diff.Identical {
		t.Error("snapshots should differ")
	}

	added := map[string]bool{}
	for _, s := range diff.Added {
		added[s] = true
	}
	if !added["added"] || !added["Widget.resize"] {
		t.Errorf("added = %v, want added and Widget.resize", diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0] != "removedSoon" {
		t.Errorf("removed = %v, want [removedSoon]", diff.Removed)
	}

	var widgetChanged bool
	for _, c := range diff.Changed {
		if c.Symbol == "Widget" {
			widgetChanged = true
		}
	}
	if !widgetChanged {
		t.Error("Widget member count change not detected")
	}

	same, err := s.Diff(ctx, baseMeta.SnapshotID, baseMeta.SnapshotID)
	if err != nil {
		t.Fatal(err)
	}
	if !same.Identical {
		t.Errorf("self-diff not identical: %+v", same)
	}
}
