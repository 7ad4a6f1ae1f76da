// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package frontend is the parsing front end consumed by the converter.
//
// It turns source files into trees of declaration Nodes carrying names,
// stable symbol identities, modifier flags, doc comments and type
// descriptors. The converter consumes only this surface; everything
// tree-sitter specific stays inside this package.
package frontend

import (
	"context"
	"errors"
	"strings"
)

// Default limits for parsers.
const (
	// DefaultMaxFileSize is the maximum file size a parser accepts (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which parsers log a warning (1MB).
	WarnFileSize = 1 * 1024 * 1024
)

// Sentinel errors returned by parsers.
var (
	// ErrFileTooLarge indicates the content exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// Parser extracts declaration nodes from source code.
//
// Implementations must be safe for concurrent use; the service layer
// parses files in parallel before the single-threaded conversion pass.
type Parser interface {
	// Parse extracts the declaration tree from one file.
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

	// Language returns the canonical language name.
	Language() string

	// Extensions returns the file extensions this parser handles.
	Extensions() []string
}

// ParseResult is the output of parsing one file.
type ParseResult struct {
	// FilePath is the path the file was parsed as, relative to the
	// project root with forward slashes.
	FilePath string `json:"file_path"`

	// Language is the canonical language name.
	Language string `json:"language"`

	// Hash is the SHA-256 of the file content, hex-encoded.
	Hash string `json:"hash"`

	// Nodes are the top-level declaration nodes in source order.
	Nodes []*Node `json:"nodes"`

	// Errors are non-fatal problems encountered while parsing.
	Errors []string `json:"errors,omitempty"`
}

// NodeKind classifies a declaration node. The converter dispatches over
// this closed set with an explicit unsupported fallthrough.
type NodeKind int

const (
	// NodeKindUnknown marks constructs this front end does not classify.
	NodeKindUnknown NodeKind = iota

	// NodeKindNamespace is a TypeScript namespace / internal module.
	NodeKindNamespace

	// NodeKindModule is a declared ambient module.
	NodeKindModule

	// NodeKindClass is a class declaration.
	NodeKindClass

	// NodeKindInterface is an interface declaration.
	NodeKindInterface

	// NodeKindEnum is an enum declaration.
	NodeKindEnum

	// NodeKindEnumMember is one member of an enum.
	NodeKindEnumMember

	// NodeKindFunction is a free function declaration or overload.
	NodeKindFunction

	// NodeKindMethod is a class or interface method.
	NodeKindMethod

	// NodeKindConstructor is a class constructor.
	NodeKindConstructor

	// NodeKindProperty is a class field or interface property.
	NodeKindProperty

	// NodeKindGetter is a get accessor.
	NodeKindGetter

	// NodeKindSetter is a set accessor.
	NodeKindSetter

	// NodeKindVariable is a let/var binding.
	NodeKindVariable

	// NodeKindConstant is a const binding.
	NodeKindConstant

	// NodeKindTypeAlias is a type alias declaration.
	NodeKindTypeAlias

	// NodeKindIndexSignature is an index signature member.
	NodeKindIndexSignature

	// NodeKindParameter is a signature parameter.
	NodeKindParameter

	// NodeKindTypeParameter is a generic type parameter.
	NodeKindTypeParameter
)

var nodeKindNames = map[NodeKind]string{
	NodeKindUnknown:        "unknown",
	NodeKindNamespace:      "namespace",
	NodeKindModule:         "module",
	NodeKindClass:          "class",
	NodeKindInterface:      "interface",
	NodeKindEnum:           "enum",
	NodeKindEnumMember:     "enum_member",
	NodeKindFunction:       "function",
	NodeKindMethod:         "method",
	NodeKindConstructor:    "constructor",
	NodeKindProperty:       "property",
	NodeKindGetter:         "getter",
	NodeKindSetter:         "setter",
	NodeKindVariable:       "variable",
	NodeKindConstant:       "constant",
	NodeKindTypeAlias:      "type_alias",
	NodeKindIndexSignature: "index_signature",
	NodeKindParameter:      "parameter",
	NodeKindTypeParameter:  "type_parameter",
}

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	if n, ok := nodeKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Location is where a node appears in source.
type Location struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartCol  int    `json:"start_col"`
	EndCol    int    `json:"end_col"`
}

// Node is one declaration extracted from source. It is a purely
// syntactic record; the converter owns all cross-file semantics.
type Node struct {
	// Kind classifies the declaration.
	Kind NodeKind `json:"kind"`

	// Name is the declared name.
	Name string `json:"name"`

	// SymbolID is the stable identity of the declared entity: the
	// dot-joined qualified name from the module root. Two declarations
	// of the same entity (overloads, namespace augmentation across
	// files, getter/setter pairs) share one SymbolID. Empty when the
	// node has no resolvable symbol.
	SymbolID string `json:"symbol_id,omitempty"`

	// Exported reports whether the declaration is exported.
	Exported bool `json:"exported,omitempty"`

	// Access is the accessibility modifier: "", "public", "private"
	// or "protected".
	Access string `json:"access,omitempty"`

	// Modifier flags.
	Static   bool `json:"static,omitempty"`
	Abstract bool `json:"abstract,omitempty"`
	Optional bool `json:"optional,omitempty"`
	Readonly bool `json:"readonly,omitempty"`
	Rest     bool `json:"rest,omitempty"`

	// Doc is the parsed doc comment, nil when absent.
	Doc *DocComment `json:"doc,omitempty"`

	// Type is the declared value type, return type for function-like
	// nodes, or aliased type for type aliases. Nil when unannotated.
	Type *TypeExpr `json:"type,omitempty"`

	// Default is the initializer or default value text.
	Default string `json:"default,omitempty"`

	// Params are parameter nodes for function-like nodes.
	Params []*Node `json:"params,omitempty"`

	// TypeParams are generic type parameter nodes.
	TypeParams []*Node `json:"type_params,omitempty"`

	// Constraint and DefaultType apply to type parameter nodes.
	Constraint  *TypeExpr `json:"constraint,omitempty"`
	DefaultType *TypeExpr `json:"default_type,omitempty"`

	// Extends and Implements are declared heritage for classes and
	// interfaces. For interfaces every parent appears in Extends.
	Extends    []*TypeExpr `json:"extends,omitempty"`
	Implements []*TypeExpr `json:"implements,omitempty"`

	// Children are nested declarations (members, namespace bodies).
	Children []*Node `json:"children,omitempty"`

	// Loc is the node's source span.
	Loc Location `json:"loc"`
}

// SymbolPath joins a scope path and a name into a symbol identity.
func SymbolPath(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, ".") + "." + name
}
