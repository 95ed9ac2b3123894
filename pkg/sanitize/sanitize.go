// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sanitize strips markup from user-supplied free text.

Descriptions and illustrator credits are stored as plain text. Any HTML a
client sends is removed before persistence so that no consumer of the API
ever has to escape stored content twice.
*/
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy removes every element and attribute. It is safe for concurrent use.
var policy = bluemonday.StrictPolicy()

// Text removes all markup from s and trims surrounding whitespace.
// Entities produced by the sanitizer are decoded back to plain characters.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// TextPtr applies [Text] to an optional value.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := Text(*s)
	return &cleaned
}
