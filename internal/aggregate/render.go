package aggregate

import (
	"strings"

	"github.com/dgallion1/contextcat/internal/doctree"
	"github.com/dgallion1/contextcat/internal/parser"
)

// renderBodies builds, per target heading, the concatenation of its matched
// sections, each introduced by a second-level link to its source.
func renderBodies(targets *doctree.TargetSet) map[string]string {
	bodies := make(map[string]string, targets.Len())
	for _, key := range targets.Keys() {
		var sb strings.Builder
		for _, s := range targets.Matches(key) {
			sb.WriteString("## [[" + s.SourceTitle + "]]\n")
			sb.WriteString(s.Body)
		}
		bodies[key] = sb.String()
	}
	return bodies
}

// renderReplace emits every target heading in order with its merged body.
func renderReplace(targets *doctree.TargetSet, bodies map[string]string) string {
	var sb strings.Builder
	for _, key := range targets.Keys() {
		sb.WriteString(parser.MarkerH1 + key + "\n")
		sb.WriteString(bodies[key])
		sb.WriteString("\n")
	}
	return sb.String()
}

// splice copies original and inserts each non-empty merged body right after
// every top-level heading line naming its target. A body that already sits
// directly below its heading is not inserted again. When the targets were
// synthesised from the document title, the rendered section is appended.
func splice(original string, targets *doctree.TargetSet, bodies map[string]string, synthetic bool) string {
	var sb strings.Builder
	rest := original
	for rest != "" {
		var piece string
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			piece, rest = rest[:i+1], rest[i+1:]
		} else {
			piece, rest = rest, ""
		}
		sb.WriteString(piece)

		line := strings.TrimRight(piece, "\r\n")
		if !strings.HasPrefix(line, parser.MarkerH1) {
			continue
		}
		key := strings.TrimSpace(line[len(parser.MarkerH1):])
		block := bodies[key]
		if !targets.Has(key) || block == "" {
			continue
		}
		if !strings.HasSuffix(piece, "\n") {
			sb.WriteString("\n")
		}
		if strings.HasPrefix(rest, block) {
			continue
		}
		sb.WriteString(block)
	}

	if synthetic {
		for _, key := range targets.Keys() {
			block := bodies[key]
			if block == "" {
				continue
			}
			out := sb.String()
			if out != "" && !strings.HasSuffix(out, "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString(parser.MarkerH1 + key + "\n" + block)
		}
	}
	return sb.String()
}
