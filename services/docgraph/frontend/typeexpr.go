// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package frontend

// TypeExprKind identifies the shape of a type descriptor.
type TypeExprKind int

const (
	// TypeExprUnknown carries only the raw source text.
	TypeExprUnknown TypeExprKind = iota

	// TypeExprNamed is a (possibly qualified, possibly generic) name.
	TypeExprNamed

	// TypeExprUnion is A | B.
	TypeExprUnion

	// TypeExprIntersection is A & B.
	TypeExprIntersection

	// TypeExprArray is T[].
	TypeExprArray

	// TypeExprTuple is [A, B].
	TypeExprTuple

	// TypeExprObject is an inline object type literal.
	TypeExprObject

	// TypeExprLiteral is a literal type such as "on" or 42.
	TypeExprLiteral
)

// TypeExpr is a syntactic type descriptor handed to the converter.
// It never resolves names; that is the resolver's job, after the whole
// program has been converted.
type TypeExpr struct {
	// Kind is the descriptor shape.
	Kind TypeExprKind `json:"kind"`

	// Text is the raw source text of the whole type. Always set; it is
	// the display fallback for shapes the model keeps as Unknown.
	Text string `json:"text"`

	// Name is the referenced name for Named descriptors, as written
	// ("Animal", "geo.Point").
	Name string `json:"name,omitempty"`

	// Args are generic type arguments for Named descriptors.
	Args []*TypeExpr `json:"args,omitempty"`

	// Members are union/intersection members or tuple elements.
	Members []*TypeExpr `json:"members,omitempty"`

	// Element is the array element type.
	Element *TypeExpr `json:"element,omitempty"`

	// ObjectMembers are the member declarations of an object literal.
	ObjectMembers []*Node `json:"object_members,omitempty"`
}

// NamedType returns a Named descriptor for a plain name.
func NamedType(name string) *TypeExpr {
	return &TypeExpr{Kind: TypeExprNamed, Name: name, Text: name}
}

// UnknownTypeExpr returns an Unknown descriptor carrying raw text.
func UnknownTypeExpr(text string) *TypeExpr {
	return &TypeExpr{Kind: TypeExprUnknown, Text: text}
}
