package parser

import (
	"strings"

	"github.com/dgallion1/contextcat/internal/doctree"
)

// Segment splits text into sections introduced by lines starting with marker.
//
// A top-level heading ("# ") always closes the capture of body lines until the
// next marker heading, so with marker "## " the content of a new top-level
// chapter is not attributed to the preceding second-level section. Lines
// before the first marker heading are dropped. The final section is always
// emitted, so the result is never empty; a section with an empty Heading
// means no marker heading was seen.
func Segment(text, marker, sourceTitle string) []doctree.Section {
	var (
		sections  []doctree.Section
		inSection bool
		capturing bool
		heading   string
		body      strings.Builder
	)

	flush := func() {
		sections = append(sections, doctree.Section{
			SourceTitle: sourceTitle,
			Heading:     heading,
			Body:        body.String(),
		})
		body.Reset()
	}

	for _, line := range splitLines(text) {
		if strings.HasPrefix(line, MarkerH1) {
			capturing = false
		}
		if strings.HasPrefix(line, marker) {
			capturing = true
			if inSection {
				flush()
			}
			inSection = true
			heading = strings.TrimSpace(line[len(marker):])
			continue
		}
		if inSection && capturing {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	flush()

	return sections
}

// TargetHeadings returns the non-empty top-level heading texts of text in
// document order.
func TargetHeadings(text string) []string {
	var headings []string
	for _, s := range Segment(text, MarkerH1, "") {
		if s.Heading != "" {
			headings = append(headings, s.Heading)
		}
	}
	return headings
}
