// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package model defines the documentation reflection graph: the entity
// types produced by conversion, the type value model, and the identity
// registry that owns every reflection for the duration of one run.
//
// The graph is arena-style: all reflections live in the registry and
// relations between them (parent, children, extends, implements) are
// plain ReflectionID values into that registry, not ownership pointers.
// Signatures, parameters and type parameters are leaf entities owned
// directly by their declaration; they still carry registry-allocated ids.
package model

// ReflectionID is the process-wide identity of one reflection.
// IDs are dense, creation-ordered, start at IDBase and are never reused.
// They are stable only within one run.
type ReflectionID int

// NoReflection is the zero ReflectionID, meaning "no target".
const NoReflection ReflectionID = 0

// Source records where a declaration was written.
type Source struct {
	// FileName is the path relative to the project root.
	FileName string `json:"file_name"`

	// Line is the 1-based start line.
	Line int `json:"line"`

	// Col is the 0-based start column.
	Col int `json:"col"`
}

// Reflection is the common head of every node in the documentation graph.
type Reflection struct {
	// ID is the registry-allocated identity. Unique per run.
	ID ReflectionID

	// Name is the declared name. Signatures use their owner's name.
	Name string

	// Kind classifies the documented entity.
	Kind Kind

	// Flags are the modifier flags.
	Flags Flags

	// Comment is the parsed doc comment, nil when absent.
	Comment *Comment

	// Parent is a back-reference to the owning reflection's id.
	// NoReflection only for the project root.
	Parent ReflectionID
}

// Base returns the reflection head; it makes every entity a Node.
func (r *Reflection) Base() *Reflection { return r }

// Node is any entity in the graph. All entities embed Reflection.
type Node interface {
	Base() *Reflection
}

// Container owns an ordered, name-indexed collection of child
// reflections. Sibling order is insertion order and is preserved for
// rendering. Name lookup may return several ids only while an overload
// set is still merging; a finished graph has one declaration per name.
type Container struct {
	Reflection

	// Children are child declaration ids in insertion order.
	Children []ReflectionID

	childIndex map[string][]ReflectionID
}

// AddChild appends a child and indexes it by name.
// The caller is responsible for setting the child's Parent.
func (c *Container) AddChild(child Node) {
	base := child.Base()
	c.Children = append(c.Children, base.ID)
	if c.childIndex == nil {
		c.childIndex = make(map[string][]ReflectionID)
	}
	c.childIndex[base.Name] = append(c.childIndex[base.Name], base.ID)
}

// ChildrenNamed returns the ids of children with the given name,
// in insertion order.
func (c *Container) ChildrenNamed(name string) []ReflectionID {
	return c.childIndex[name]
}

// FirstChildNamed returns the first child with the given name,
// or NoReflection.
func (c *Container) FirstChildNamed(name string) ReflectionID {
	if ids := c.childIndex[name]; len(ids) > 0 {
		return ids[0]
	}
	return NoReflection
}

// HierarchyNode is one layer of a linearized type hierarchy. Layers are
// chained root-most first; exactly one layer in a finished chain has
// IsTarget set, and it is the layer of the declaration the hierarchy
// was computed for.
type HierarchyNode struct {
	// Types are the types participating in this layer.
	Types []Type

	// IsTarget marks the layer of the originating declaration.
	IsTarget bool

	// Next is the layer below, nil at the tail.
	Next *HierarchyNode
}

// Declaration is the common reflection for named program entities:
// a container of members plus a type, an overload set, accessor
// signatures and the five reference slots written by the resolver.
type Declaration struct {
	Container

	// SymbolID is the front end's stable identity used as the merge key.
	// Empty for synthetic declarations.
	SymbolID string

	// Sources are the source locations of every declaration merged into
	// this reflection, in conversion order.
	Sources []Source

	// Type is the value type, or the aliased type for a type alias.
	Type Type

	// DefaultValue is the initializer text, when present.
	DefaultValue string

	// TypeParameters are the declared generic parameters.
	TypeParameters []*TypeParameter

	// Signatures is the overload set in source order.
	Signatures []*Signature

	// IndexSignature is the index signature, when present.
	IndexSignature *Signature

	// GetSignature and SetSignature are the accessor halves.
	GetSignature *Signature
	SetSignature *Signature

	// ExtendedTypes and ImplementedTypes are the declared heritage.
	// Their reference types are resolved by the resolver.
	ExtendedTypes    []Type
	ImplementedTypes []Type

	// ExtendedBy and ImplementedBy are reverse edges. They are empty
	// during conversion and populated exclusively by the resolver.
	ExtendedBy    []*ReferenceType
	ImplementedBy []*ReferenceType

	// InheritedFrom, Overwrites and ImplementationOf are member-level
	// reference slots written by the resolver.
	InheritedFrom    *ReferenceType
	Overwrites       *ReferenceType
	ImplementationOf *ReferenceType

	// Hierarchy is the linearized type hierarchy, computed post-resolution.
	Hierarchy *HierarchyNode
}

// NewDeclaration returns a declaration with the given head fields.
// The caller allocates its id through the registry.
func NewDeclaration(name string, kind Kind) *Declaration {
	d := &Declaration{}
	d.Name = name
	d.Kind = kind
	return d
}

// IsContainerKind reports whether this declaration accepts child members.
func (d *Declaration) IsContainerKind() bool {
	return d.Kind.IsContainer()
}

// Signature is one callable shape inside an overload set, or an
// accessor/index signature. Owned by exactly one declaration.
type Signature struct {
	Reflection

	// Parameters are the signature parameters in source order.
	// Invariant: a rest parameter, if present, is last; optional
	// parameters trail required ones.
	Parameters []*Parameter

	// TypeParameters are signature-level generic parameters.
	TypeParameters []*TypeParameter

	// Type is the return type.
	Type Type
}

// HasRestParameter reports whether the last parameter is a rest parameter.
func (s *Signature) HasRestParameter() bool {
	n := len(s.Parameters)
	return n > 0 && s.Parameters[n-1].Flags.Has(FlagRest)
}

// Parameter is one signature parameter. Owned by exactly one signature.
type Parameter struct {
	Reflection

	// Type is the declared parameter type.
	Type Type

	// DefaultValue is the default initializer text, when present.
	DefaultValue string
}

// TypeParameter is one generic type parameter. Owned by exactly one
// declaration or signature.
type TypeParameter struct {
	Reflection

	// Constraint is the `extends` constraint, when present.
	Constraint Type

	// Default is the default type, when present.
	Default Type
}
