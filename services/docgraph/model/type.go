// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import "strings"

// TypeKind identifies the variant of a Type value.
type TypeKind int

const (
	// TypeKindIntrinsic is a built-in type (string, number, void, ...).
	TypeKindIntrinsic TypeKind = iota

	// TypeKindReference names another declaration. Resolution is deferred
	// until the whole program has been converted.
	TypeKindReference

	// TypeKindReflection is an inline object type backed by a synthetic
	// declaration.
	TypeKindReflection

	// TypeKindUnion is A | B | C.
	TypeKindUnion

	// TypeKindIntersection is A & B & C.
	TypeKindIntersection

	// TypeKindArray is T[].
	TypeKindArray

	// TypeKindTuple is [A, B].
	TypeKindTuple

	// TypeKindTypeParameter references a generic type parameter in scope.
	TypeKindTypeParameter

	// TypeKindUnknown is the text fallback for anything this model
	// does not represent structurally.
	TypeKindUnknown
)

// Type is a value in the type model. Types are values attached to the
// graph, not owned graph nodes: the only graph linkage is the lazily
// resolved target of a ReferenceType and the synthetic declaration id of
// a ReflectionType.
//
// The interface is sealed so converters can switch exhaustively.
type Type interface {
	// TypeKind returns the variant for switching.
	TypeKind() TypeKind

	// String renders the type as source-like text. Used as the display
	// fallback for unresolved references.
	String() string

	sealed()
}

// IntrinsicType is a built-in type known to the language.
type IntrinsicType struct {
	Name string
}

func (t *IntrinsicType) TypeKind() TypeKind { return TypeKindIntrinsic }
func (t *IntrinsicType) String() string     { return t.Name }
func (t *IntrinsicType) sealed()            {}

// ReferenceType is a placeholder pointing at a named declaration.
//
// During conversion only Name, TypeArguments and ScopePath are set.
// The resolver fills Target and flips Resolved; an unresolved reference
// keeps rendering as plain text and is never dereferenced.
type ReferenceType struct {
	// Name is the referenced name as written, possibly qualified ("a.B").
	Name string

	// TypeArguments are the generic arguments, in source order.
	TypeArguments []Type

	// ScopePath is the namespace path of the lexical scope the reference
	// was written in, outermost first. The resolver derives symbol
	// candidates from it, innermost scope tried first.
	ScopePath []string

	// Target is the resolved declaration id. Zero until resolution.
	Target ReflectionID

	// Resolved reports whether Target is valid.
	Resolved bool
}

func (t *ReferenceType) TypeKind() TypeKind { return TypeKindReference }

func (t *ReferenceType) String() string {
	if len(t.TypeArguments) == 0 {
		return t.Name
	}
	args := make([]string, len(t.TypeArguments))
	for i, a := range t.TypeArguments {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

func (t *ReferenceType) sealed() {}

// SymbolCandidates returns the symbol identities this reference may
// resolve to, innermost scope first. For a reference "Animal" written
// inside namespace "zoo" that is ["zoo.Animal", "Animal"].
func (t *ReferenceType) SymbolCandidates() []string {
	out := make([]string, 0, len(t.ScopePath)+1)
	for i := len(t.ScopePath); i > 0; i-- {
		out = append(out, strings.Join(t.ScopePath[:i], ".")+"."+t.Name)
	}
	return append(out, t.Name)
}

// ReflectionType is an inline object type. The synthetic declaration is
// owned by this value: it is registered for identity but never appears
// in any parent's child collection.
type ReflectionType struct {
	// Declaration is the id of the synthetic type-literal declaration.
	Declaration ReflectionID
}

func (t *ReflectionType) TypeKind() TypeKind { return TypeKindReflection }
func (t *ReflectionType) String() string     { return "{...}" }
func (t *ReflectionType) sealed()            {}

// UnionType is a union of member types.
type UnionType struct {
	Types []Type
}

func (t *UnionType) TypeKind() TypeKind { return TypeKindUnion }
func (t *UnionType) String() string     { return joinTypes(t.Types, " | ") }
func (t *UnionType) sealed()            {}

// IntersectionType is an intersection of member types.
type IntersectionType struct {
	Types []Type
}

func (t *IntersectionType) TypeKind() TypeKind { return TypeKindIntersection }
func (t *IntersectionType) String() string     { return joinTypes(t.Types, " & ") }
func (t *IntersectionType) sealed()            {}

// ArrayType is an element type repeated.
type ArrayType struct {
	Element Type
}

func (t *ArrayType) TypeKind() TypeKind { return TypeKindArray }

func (t *ArrayType) String() string {
	if t.Element == nil {
		return "[]"
	}
	return t.Element.String() + "[]"
}

func (t *ArrayType) sealed() {}

// TupleType is a fixed-length positional type list.
type TupleType struct {
	Elements []Type
}

func (t *TupleType) TypeKind() TypeKind { return TypeKindTuple }
func (t *TupleType) String() string     { return "[" + joinTypes(t.Elements, ", ") + "]" }
func (t *TupleType) sealed()            {}

// TypeParameterType references a type parameter bound in an enclosing scope.
type TypeParameterType struct {
	Name string
}

func (t *TypeParameterType) TypeKind() TypeKind { return TypeKindTypeParameter }
func (t *TypeParameterType) String() string     { return t.Name }
func (t *TypeParameterType) sealed()            {}

// UnknownType carries the source text of a type this model cannot
// represent structurally.
type UnknownType struct {
	Text string
}

func (t *UnknownType) TypeKind() TypeKind { return TypeKindUnknown }
func (t *UnknownType) String() string     { return t.Text }
func (t *UnknownType) sealed()            {}

func joinTypes(types []Type, sep string) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		if t != nil {
			parts = append(parts, t.String())
		}
	}
	return strings.Join(parts, sep)
}

// WalkTypes calls fn for t and every type nested inside it.
// Reflection types are not followed into their synthetic declarations;
// callers walk those through the registry.
func WalkTypes(t Type, fn func(Type)) {
	if t == nil {
		return
	}
	fn(t)
	switch v := t.(type) {
	case *ReferenceType:
		for _, a := range v.TypeArguments {
			WalkTypes(a, fn)
		}
	case *UnionType:
		for _, m := range v.Types {
			WalkTypes(m, fn)
		}
	case *IntersectionType:
		for _, m := range v.Types {
			WalkTypes(m, fn)
		}
	case *ArrayType:
		WalkTypes(v.Element, fn)
	case *TupleType:
		for _, m := range v.Elements {
			WalkTypes(m, fn)
		}
	}
}
