// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import "strings"

// CommentTag is one block tag extracted from a doc comment,
// e.g. {Name: "param", Content: "x The horizontal offset."}.
type CommentTag struct {
	// Name is the tag name without the leading '@', lowercased.
	Name string `json:"name"`

	// Content is the raw text following the tag, trimmed.
	Content string `json:"content,omitempty"`
}

// Comment is the parsed doc comment of a reflection: summary text plus
// extracted block tags. Markdown inside Summary is passed through verbatim;
// only tag extraction happens in this system.
type Comment struct {
	// Summary is the text before the first block tag.
	Summary string `json:"summary,omitempty"`

	// Tags are the block tags in source order.
	Tags []CommentTag `json:"tags,omitempty"`
}

// IsEmpty reports whether the comment carries no text at all.
func (c *Comment) IsEmpty() bool {
	return c == nil || (strings.TrimSpace(c.Summary) == "" && len(c.Tags) == 0)
}

// HasTag reports whether a tag with the given name is present.
func (c *Comment) HasTag(name string) bool {
	return c.Tag(name) != nil
}

// Tag returns the first tag with the given name, or nil.
func (c *Comment) Tag(name string) *CommentTag {
	if c == nil {
		return nil
	}
	name = strings.ToLower(name)
	for i := range c.Tags {
		if c.Tags[i].Name == name {
			return &c.Tags[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Returns nil for a nil receiver.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	out := &Comment{Summary: c.Summary}
	if len(c.Tags) > 0 {
		out.Tags = make([]CommentTag, len(c.Tags))
		copy(out.Tags, c.Tags)
	}
	return out
}
