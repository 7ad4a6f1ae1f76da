// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package converter builds the reflection graph from parsed source
// files. Conversion is single-threaded: one pass over all files in
// deterministic order, creating or merging one Declaration per symbol
// and recording non-fatal diagnostics for anything it cannot handle.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidewaterhq/docgraph/services/docgraph/frontend"
	"github.com/tidewaterhq/docgraph/services/docgraph/model"
)

// Options configures graph conversion.
type Options struct {
	// ExcludeNotExported drops top-level declarations that are not
	// exported from their file or namespace.
	ExcludeNotExported bool

	// ExcludePrivate drops class members marked private.
	ExcludePrivate bool
}

// DefaultOptions returns the standard conversion configuration.
func DefaultOptions() Options {
	return Options{
		ExcludeNotExported: false,
		ExcludePrivate:     false,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithExcludeNotExported drops unexported top-level declarations.
func WithExcludeNotExported(exclude bool) Option {
	return func(o *Options) { o.ExcludeNotExported = exclude }
}

// WithExcludePrivate drops private class members.
func WithExcludePrivate(exclude bool) Option {
	return func(o *Options) { o.ExcludePrivate = exclude }
}

// Stats summarizes one conversion run.
type Stats struct {
	FilesConverted int           `json:"files_converted"`
	NodesConverted int           `json:"nodes_converted"`
	NodesSkipped   int           `json:"nodes_skipped"`
	SymbolsMerged  int           `json:"symbols_merged"`
	Duration       time.Duration `json:"duration"`
}

// Result carries the converted project plus everything that went
// wrong without stopping the run.
type Result struct {
	Project     *model.Project
	Diagnostics []model.Diagnostic
	Stats       Stats
}

// Converter turns parse results into a reflection graph.
//
// Description:
//
//	Converter walks the declaration trees produced by the front end
//	and builds Declarations, Signatures, Parameters and Types in a
//	model.Project. Multiple declarations of one symbol (overloads,
//	getter/setter pairs, cross-file augmentation) merge into a single
//	Declaration. Conversion never fails on bad input: unsupported
//	constructs are skipped and shape conflicts discard the later
//	declaration's conflicting parts, both with diagnostics.
//
// Thread Safety:
//
//	A Converter is stateless and safe for concurrent use; each
//	Convert call builds an independent Project. The conversion of one
//	project is strictly single-threaded.
type Converter struct {
	opts Options
}

// NewConverter creates a Converter with the given options.
func NewConverter(opts ...Option) *Converter {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Converter{opts: o}
}

// Convert builds a reflection graph from parsed files.
//
// Description:
//
//	Files are converted in the order given, so callers that need
//	deterministic output sort them first. The returned project is not
//	yet resolved: reference types still carry unresolved symbol names
//	until the resolver runs.
//
// Inputs:
//
//	ctx - Context for cancellation, checked between files.
//	projectName - Display name of the documented project.
//	projectRoot - Absolute path of the source root.
//	files - Parse results, one per source file.
//
// Outputs:
//
//	*Result - Project, diagnostics and stats. Never nil on nil error.
//	error - Only context cancellation. Malformed input never errors.
func (c *Converter) Convert(ctx context.Context, projectName, projectRoot string, files []*frontend.ParseResult) (*Result, error) {
	ctx, span := startConvertSpan(ctx, projectName, len(files))
	defer span.End()

	start := time.Now()
	project := model.NewProject(projectName, projectRoot)
	cx := newScopeContext(project)
	stats := Stats{}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			recordConvertMetrics(time.Since(start), stats.NodesConverted, false)
			return nil, fmt.Errorf("conversion canceled: %w", err)
		}

		cx.file = file.FilePath
		for _, node := range file.Nodes {
			c.convertNode(cx, node, nil, &stats)
		}
		stats.FilesConverted++
	}

	stats.Duration = time.Since(start)

	slog.Info("conversion complete",
		slog.String("project", projectName),
		slog.Int("files", stats.FilesConverted),
		slog.Int("nodes", stats.NodesConverted),
		slog.Int("skipped", stats.NodesSkipped),
		slog.Int("merged", stats.SymbolsMerged),
		slog.Int("diagnostics", len(cx.diagnostics)),
		slog.Duration("duration", stats.Duration))

	setConvertSpanResult(span, stats.NodesConverted, len(cx.diagnostics))
	recordConvertMetrics(stats.Duration, stats.NodesConverted, true)

	return &Result{
		Project:     project,
		Diagnostics: cx.diagnostics,
		Stats:       stats,
	}, nil
}

// convertNode dispatches one declaration node to its handler.
// parentDecl is the enclosing declaration when converting members,
// nil at file level.
func (c *Converter) convertNode(cx *scopeContext, n *frontend.Node, parentDecl *model.Declaration, stats *Stats) {
	if n == nil {
		return
	}

	if c.opts.ExcludeNotExported && parentDecl == nil && !n.Exported {
		stats.NodesSkipped++
		return
	}
	if c.opts.ExcludePrivate && n.Access == "private" {
		stats.NodesSkipped++
		return
	}

	switch n.Kind {
	case frontend.NodeKindNamespace, frontend.NodeKindModule:
		c.convertNamespace(cx, n, stats)

	case frontend.NodeKindClass:
		c.convertClassLike(cx, n, model.KindClass, stats)

	case frontend.NodeKindInterface:
		c.convertClassLike(cx, n, model.KindInterface, stats)

	case frontend.NodeKindEnum:
		c.convertEnum(cx, n, stats)

	case frontend.NodeKindEnumMember:
		c.convertEnumMember(cx, n, stats)

	case frontend.NodeKindFunction:
		c.convertFunctionLike(cx, n, model.KindFunction, stats)

	case frontend.NodeKindMethod:
		c.convertFunctionLike(cx, n, model.KindMethod, stats)

	case frontend.NodeKindConstructor:
		c.convertFunctionLike(cx, n, model.KindConstructor, stats)

	case frontend.NodeKindGetter, frontend.NodeKindSetter:
		c.convertAccessor(cx, n, stats)

	case frontend.NodeKindProperty:
		c.convertMember(cx, n, model.KindProperty, stats)

	case frontend.NodeKindVariable:
		c.convertMember(cx, n, model.KindVariable, stats)

	case frontend.NodeKindConstant:
		c.convertMember(cx, n, model.KindConstant, stats)

	case frontend.NodeKindTypeAlias:
		c.convertTypeAlias(cx, n, stats)

	case frontend.NodeKindIndexSignature:
		c.convertIndexSignature(cx, n, parentDecl, stats)

	default:
		cx.Report(model.DiagUnsupportedConstruct,
			fmt.Sprintf("no handler for %s node %q", n.Kind, n.Name),
			n.SymbolID, n.Loc.StartLine)
		slog.Debug("skipping unsupported construct",
			slog.String("file", cx.file),
			slog.String("node_kind", n.Kind.String()),
			slog.String("name", n.Name))
		stats.NodesSkipped++
	}
}

// flagsOf maps front-end modifiers onto reflection flags.
func flagsOf(n *frontend.Node) model.Flags {
	var f model.Flags
	if n.Exported {
		f = f.With(model.FlagExported)
	}
	switch n.Access {
	case "private":
		f = f.With(model.FlagPrivate)
	case "protected":
		f = f.With(model.FlagProtected)
	case "public":
		f = f.With(model.FlagPublic)
	}
	if n.Static {
		f = f.With(model.FlagStatic)
	}
	if n.Abstract {
		f = f.With(model.FlagAbstract)
	}
	if n.Optional {
		f = f.With(model.FlagOptional)
	}
	if n.Rest {
		f = f.With(model.FlagRest)
	}
	if n.Readonly {
		f = f.With(model.FlagReadonly)
	}
	return f
}

// commentOf converts a parsed doc comment. Returns nil for
// undocumented nodes.
func commentOf(doc *frontend.DocComment) *model.Comment {
	if doc == nil {
		return nil
	}
	out := &model.Comment{Summary: doc.Summary}
	for _, tag := range doc.Tags {
		out.Tags = append(out.Tags, model.CommentTag{Name: tag.Name, Content: tag.Content})
	}
	return out
}

// sourceOf converts a front-end location.
func sourceOf(n *frontend.Node) model.Source {
	return model.Source{
		FileName: n.Loc.FilePath,
		Line:     n.Loc.StartLine,
		Col:      n.Loc.StartCol,
	}
}
