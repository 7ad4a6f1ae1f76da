// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// SymbolChange describes how one symbol differs between snapshots.
type SymbolChange struct {
	Symbol string `json:"symbol"`
	Detail string `json:"detail"`
}

// SnapshotDiff summarizes the difference between two snapshots.
type SnapshotDiff struct {
	BaseID   string `json:"base_id"`
	TargetID string `json:"target_id"`

	// Added and Removed are symbol ids present in only one snapshot,
	// sorted.
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Changed are symbols whose documented shape differs.
	Changed []SymbolChange `json:"changed,omitempty"`

	// Identical is true when nothing differs.
	Identical bool `json:"identical"`
}

// Diff loads two snapshots and compares their declaration sets by
// symbol identity.
func (s *SnapshotStore) Diff(ctx context.Context, baseID, targetID string) (*SnapshotDiff, error) {
	base, _, err := s.Load(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("loading base snapshot: %w", err)
	}
	target, _, err := s.Load(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("loading target snapshot: %w", err)
	}

	diff := &SnapshotDiff{BaseID: baseID, TargetID: targetID}

	baseSymbols := declarationsBySymbol(base)
	targetSymbols := declarationsBySymbol(target)

	for symbol, targetDecl := range targetSymbols {
		baseDecl, ok := baseSymbols[symbol]
		if !ok {
			diff.Added = append(diff.Added, symbol)
			continue
		}
		if detail := compareDeclarations(baseDecl, targetDecl); detail != "" {
			diff.Changed = append(diff.Changed, SymbolChange{Symbol: symbol, Detail: detail})
		}
	}
	for symbol := range baseSymbols {
		if _, ok := targetSymbols[symbol]; !ok {
			diff.Removed = append(diff.Removed, symbol)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Slice(diff.Changed, func(i, j int) bool { return diff.Changed[i].Symbol < diff.Changed[j].Symbol })
	diff.Identical = len(diff.Added) == 0 && len(diff.Removed) == 0 && len(diff.Changed) == 0

	return diff, nil
}

func declarationsBySymbol(p *model.Project) map[string]*model.Declaration {
	out := make(map[string]*model.Declaration)
	p.Registry.EachDeclaration(func(d *model.Declaration) {
		if d.SymbolID != "" {
			out[d.SymbolID] = d
		}
	})
	return out
}

// compareDeclarations returns a short description of the first
// difference found, or "" when the documented shapes match.
func compareDeclarations(base, target *model.Declaration) string {
	if base.Kind != target.Kind {
		return fmt.Sprintf("kind changed: %s -> %s", base.Kind, target.Kind)
	}
	if len(base.Signatures) != len(target.Signatures) {
		return fmt.Sprintf("overloads changed: %d -> %d", len(base.Signatures), len(target.Signatures))
	}
	if len(base.Children) != len(target.Children) {
		return fmt.Sprintf("members changed: %d -> %d", len(base.Children), len(target.Children))
	}
	if typeText(base.Type) != typeText(target.Type) {
		return fmt.Sprintf("type changed: %s -> %s", typeText(base.Type), typeText(target.Type))
	}
	if (base.GetSignature != nil) != (target.GetSignature != nil) ||
		(base.SetSignature != nil) != (target.SetSignature != nil) {
		return "accessor shape changed"
	}
	if base.DefaultValue != target.DefaultValue {
		return "default value changed"
	}
	return ""
}

func typeText(t model.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
