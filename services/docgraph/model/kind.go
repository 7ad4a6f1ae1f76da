// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import (
	"encoding/json"
	"fmt"
)

// Kind identifies what program entity a Reflection documents.
//
// The set is closed: converters dispatch over Kind with an explicit
// unsupported fallthrough, and serialization emits the string form.
type Kind int

const (
	// KindNone is the zero value and never appears in a finished graph.
	KindNone Kind = iota

	// KindProject is the root reflection owning every other reflection.
	KindProject

	// KindModule is a file-level module (one per converted source file
	// that declares top-level exports).
	KindModule

	// KindNamespace is a TypeScript namespace or internal module.
	KindNamespace

	// KindClass is a class declaration.
	KindClass

	// KindInterface is an interface declaration.
	KindInterface

	// KindEnum is an enum declaration.
	KindEnum

	// KindEnumMember is a single member of an enum.
	KindEnumMember

	// KindVariable is a let/var binding.
	KindVariable

	// KindConstant is a const binding.
	KindConstant

	// KindFunction is a free function (the declaration holds the overload set).
	KindFunction

	// KindMethod is a class or interface method.
	KindMethod

	// KindProperty is a class field or interface property.
	KindProperty

	// KindAccessor is a get/set accessor pair merged into one declaration.
	KindAccessor

	// KindConstructor is a class constructor.
	KindConstructor

	// KindCallSignature is one callable shape inside an overload set.
	KindCallSignature

	// KindConstructorSignature is the callable shape of a constructor.
	KindConstructorSignature

	// KindGetSignature is the getter half of an accessor.
	KindGetSignature

	// KindSetSignature is the setter half of an accessor.
	KindSetSignature

	// KindIndexSignature is an index signature ([key: string]: T).
	KindIndexSignature

	// KindParameter is a signature parameter.
	KindParameter

	// KindTypeParameter is a generic type parameter.
	KindTypeParameter

	// KindTypeAlias is a type alias declaration.
	KindTypeAlias

	// KindTypeLiteral is a synthetic declaration backing an inline
	// object type. It is owned by a ReflectionType value, never by a
	// parent's child collection.
	KindTypeLiteral
)

var kindNames = map[Kind]string{
	KindNone:                 "None",
	KindProject:              "Project",
	KindModule:               "Module",
	KindNamespace:            "Namespace",
	KindClass:                "Class",
	KindInterface:            "Interface",
	KindEnum:                 "Enum",
	KindEnumMember:           "EnumMember",
	KindVariable:             "Variable",
	KindConstant:             "Constant",
	KindFunction:             "Function",
	KindMethod:               "Method",
	KindProperty:             "Property",
	KindAccessor:             "Accessor",
	KindConstructor:          "Constructor",
	KindCallSignature:        "CallSignature",
	KindConstructorSignature: "ConstructorSignature",
	KindGetSignature:         "GetSignature",
	KindSetSignature:         "SetSignature",
	KindIndexSignature:       "IndexSignature",
	KindParameter:            "Parameter",
	KindTypeParameter:        "TypeParameter",
	KindTypeAlias:            "TypeAlias",
	KindTypeLiteral:          "TypeLiteral",
}

var kindValues = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// String returns the stable string form of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsContainer reports whether reflections of this kind own child reflections.
func (k Kind) IsContainer() bool {
	switch k {
	case KindProject, KindModule, KindNamespace, KindClass, KindInterface, KindEnum, KindTypeLiteral:
		return true
	default:
		return false
	}
}

// IsSignature reports whether the kind is one of the signature kinds.
func (k Kind) IsSignature() bool {
	switch k {
	case KindCallSignature, KindConstructorSignature, KindGetSignature, KindSetSignature, KindIndexSignature:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the kind as its string form.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its string form.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := kindValues[s]
	if !ok {
		return fmt.Errorf("unknown reflection kind %q", s)
	}
	*k = v
	return nil
}

// ParseKind converts a string form back to a Kind.
func ParseKind(s string) (Kind, error) {
	if v, ok := kindValues[s]; ok {
		return v, nil
	}
	return KindNone, fmt.Errorf("unknown reflection kind %q", s)
}
