// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

// IDBase is the first reflection id allocated in a run.
const IDBase ReflectionID = 1

// Registry allocates reflection identities and holds the flat
// id -> reflection index for the whole run, plus the symbol-identity
// map used for merge decisions.
//
// Allocation cannot fail: ids are dense integers starting at IDBase
// and the id space is treated as inexhaustible.
//
// Thread Safety:
//
//	Registry is written by the single conversion/resolution goroutine
//	only (see the concurrency model in the package docs) and is safe
//	for concurrent reads once the project is frozen.
type Registry struct {
	nextID  ReflectionID
	nodes   map[ReflectionID]Node
	order   []ReflectionID
	symbols map[string]ReflectionID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nextID:  IDBase,
		nodes:   make(map[ReflectionID]Node),
		symbols: make(map[string]ReflectionID),
	}
}

// Allocate assigns the next id to the node, records it in the index and
// returns the id. No two calls ever return the same id.
func (r *Registry) Allocate(n Node) ReflectionID {
	id := r.nextID
	r.nextID++
	n.Base().ID = id
	r.nodes[id] = n
	r.order = append(r.order, id)
	return id
}

// Get returns the node with the given id.
func (r *Registry) Get(id ReflectionID) (Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Declaration returns the declaration with the given id, or false when
// the id is absent or names a non-declaration node.
func (r *Registry) Declaration(id ReflectionID) (*Declaration, bool) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, false
	}
	d, ok := n.(*Declaration)
	return d, ok
}

// RegisterSymbol records that the front-end symbol identity converted
// into the given reflection. Later declarations of the same symbol merge
// into that reflection instead of creating duplicates.
func (r *Registry) RegisterSymbol(symbolID string, id ReflectionID) {
	if symbolID == "" {
		return
	}
	r.symbols[symbolID] = id
}

// LookupSymbol returns the reflection a symbol identity converted into.
func (r *Registry) LookupSymbol(symbolID string) (ReflectionID, bool) {
	id, ok := r.symbols[symbolID]
	return id, ok
}

// Len returns the number of allocated reflections.
func (r *Registry) Len() int {
	return len(r.order)
}

// SymbolCount returns the number of registered symbol identities.
func (r *Registry) SymbolCount() int {
	return len(r.symbols)
}

// IDs returns every allocated id in creation order.
// The returned slice must not be mutated.
func (r *Registry) IDs() []ReflectionID {
	return r.order
}

// EachDeclaration calls fn for every declaration in creation order.
func (r *Registry) EachDeclaration(fn func(*Declaration)) {
	for _, id := range r.order {
		if d, ok := r.nodes[id].(*Declaration); ok {
			fn(d)
		}
	}
}
