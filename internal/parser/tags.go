package parser

import (
	"regexp"
	"strings"
)

// tagToken matches an inline tag: whitespace, '#', then the tag name.
var tagToken = regexp.MustCompile(`\s#(\S+)`)

// TagLines collects document lines carrying any of a fixed set of tags.
type TagLines struct {
	order []string
	lines map[string][]string
}

// NewTagLines prepares a collector for targets. Render emits tags in this
// order.
func NewTagLines(targets []string) *TagLines {
	t := &TagLines{lines: make(map[string][]string, len(targets))}
	for _, tag := range targets {
		if _, ok := t.lines[tag]; ok {
			continue
		}
		t.order = append(t.order, tag)
		t.lines[tag] = nil
	}
	return t
}

// Scan appends every line of content that carries a target tag. Each tag on
// a line is checked independently; a line carrying two target tags is
// recorded under both.
func (t *TagLines) Scan(content string) {
	for _, line := range splitLines(content) {
		seen := map[string]bool{}
		for _, m := range tagToken.FindAllStringSubmatch(line, -1) {
			tag := m[1]
			if seen[tag] {
				continue
			}
			if _, ok := t.lines[tag]; !ok {
				continue
			}
			seen[tag] = true
			t.lines[tag] = append(t.lines[tag], line)
		}
	}
}

// Tags returns the target tags in render order.
func (t *TagLines) Tags() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Lines returns the collected lines for tag.
func (t *TagLines) Lines(tag string) []string {
	return t.lines[tag]
}

// Render emits one top-level heading per tag followed by its lines, each set
// off by blank lines.
func (t *TagLines) Render() string {
	var sb strings.Builder
	for _, tag := range t.order {
		sb.WriteString("# " + tag + "\n")
		for _, line := range t.lines[tag] {
			sb.WriteString("\n" + line + " \n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
