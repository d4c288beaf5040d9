// Package parser splits Markdown documents into the pieces the aggregator
// works with: heading sections, front matter fields and tagged lines.
package parser

import (
	"path"
	"strings"
)

// Heading markers recognised by Segment.
const (
	MarkerH1 = "# "
	MarkerH2 = "## "
)

// markdownExtensions lists file extensions treated as Markdown documents.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// IsMarkdown reports whether p names a Markdown document.
func IsMarkdown(p string) bool {
	return markdownExtensions[strings.ToLower(path.Ext(p))]
}

// Title returns the display name of a document: its base name without the
// extension.
func Title(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// splitLines breaks text into lines. A trailing newline does not produce an
// extra empty line, and CR before LF is dropped.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
