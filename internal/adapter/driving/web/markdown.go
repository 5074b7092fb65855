package web

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	mdRenderer      goldmark.Markdown
	subjectSanitize *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
	)

	// Subjects are one line, so block elements are dropped and only inline
	// emphasis survives.
	subjectSanitize = bluemonday.NewPolicy()
	subjectSanitize.AllowElements("code", "em", "strong", "del")
}

// RenderSubject converts a change subject written with inline markdown
// (backticks, emphasis) into sanitized inline HTML.
// Returns empty string for empty input.
func RenderSubject(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return subjectSanitize.Sanitize(src)
	}

	return strings.TrimSpace(subjectSanitize.Sanitize(buf.String()))
}
