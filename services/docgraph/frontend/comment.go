// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package frontend

import "strings"

// DocTag is one block tag extracted from a doc comment.
type DocTag struct {
	// Name is the tag name without the leading '@', lowercased.
	Name string `json:"name"`

	// Content is the text following the tag, trimmed.
	Content string `json:"content,omitempty"`
}

// DocComment is the parsed form of a /** */ block: the summary text
// before the first block tag, plus the tags in source order. Anything
// beyond tag extraction (markdown, links) is left to renderers.
type DocComment struct {
	Summary string   `json:"summary,omitempty"`
	Tags    []DocTag `json:"tags,omitempty"`
}

// ParseDocComment parses a raw /** */ comment into a DocComment.
// Returns nil for empty input or comments that carry no text.
func ParseDocComment(raw string) *DocComment {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/**") {
		return nil
	}
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimSuffix(raw, "*/")

	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		if len(line) > 0 && line[0] == ' ' {
			line = line[1:]
		}
		cleaned = append(cleaned, line)
	}

	doc := &DocComment{}
	var summary []string
	var tag *DocTag
	var tagContent []string

	flushTag := func() {
		if tag != nil {
			tag.Content = strings.TrimSpace(strings.Join(tagContent, "\n"))
			doc.Tags = append(doc.Tags, *tag)
			tag = nil
			tagContent = nil
		}
	}

	for _, line := range cleaned {
		if strings.HasPrefix(line, "@") {
			flushTag()
			name, rest := splitTagLine(line)
			tag = &DocTag{Name: name}
			if rest != "" {
				tagContent = append(tagContent, rest)
			}
			continue
		}
		if tag != nil {
			tagContent = append(tagContent, line)
		} else {
			summary = append(summary, line)
		}
	}
	flushTag()

	doc.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	if doc.Summary == "" && len(doc.Tags) == 0 {
		return nil
	}
	return doc
}

// splitTagLine splits "@param x The offset." into ("param", "x The offset.").
func splitTagLine(line string) (string, string) {
	line = strings.TrimPrefix(line, "@")
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return strings.ToLower(line[:i]), strings.TrimSpace(line[i+1:])
	}
	return strings.ToLower(line), ""
}
