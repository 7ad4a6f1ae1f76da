// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import "encoding/json"

// Flags is a bitset of modifier flags attached to a Reflection.
type Flags uint16

const (
	// FlagExported marks a reflection reachable from a module export.
	FlagExported Flags = 1 << iota

	// FlagPrivate marks a private class member.
	FlagPrivate

	// FlagProtected marks a protected class member.
	FlagProtected

	// FlagPublic marks an explicitly public class member.
	FlagPublic

	// FlagStatic marks a static class member.
	FlagStatic

	// FlagAbstract marks an abstract class or member.
	FlagAbstract

	// FlagOptional marks an optional member or parameter.
	FlagOptional

	// FlagRest marks a rest parameter.
	FlagRest

	// FlagReadonly marks a readonly property.
	FlagReadonly

	// FlagExternal marks a reflection originating outside the project root.
	FlagExternal
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagExported, "exported"},
	{FlagPrivate, "private"},
	{FlagProtected, "protected"},
	{FlagPublic, "public"},
	{FlagStatic, "static"},
	{FlagAbstract, "abstract"},
	{FlagOptional, "optional"},
	{FlagRest, "rest"},
	{FlagReadonly, "readonly"},
	{FlagExternal, "external"},
}

// Has reports whether all bits in f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// With returns a copy with the given bits set.
func (fl Flags) With(f Flags) Flags {
	return fl | f
}

// Names returns the set flags as their lowercase string forms,
// in declaration order. Returns nil when no flags are set.
func (fl Flags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if fl.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}

// MarshalJSON encodes the flags as an array of flag names.
func (fl Flags) MarshalJSON() ([]byte, error) {
	names := fl.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes the flags from an array of flag names.
// Unknown names are ignored so older snapshots keep loading.
func (fl *Flags) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out Flags
	for _, n := range names {
		for _, fn := range flagNames {
			if fn.name == n {
				out |= fn.flag
				break
			}
		}
	}
	*fl = out
	return nil
}
