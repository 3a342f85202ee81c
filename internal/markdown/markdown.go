// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown renders event descriptions from Markdown to sanitized HTML.
package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer strips potentially dangerous elements like <script> and event
// handlers from rendered output. Event descriptions are user-generated content,
// so UGCPolicy is the right baseline.
var htmlSanitizer = bluemonday.UGCPolicy()

// Render converts Markdown source to sanitized HTML.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
