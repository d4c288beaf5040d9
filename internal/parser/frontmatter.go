package parser

import (
	"regexp"
	"strings"
)

// FrontMatter is the metadata block of a document.
type FrontMatter struct {
	Fields map[string][]string
	Raw    string // Block text including both delimiter lines, newline terminated
}

// Get returns the values of key and whether the key was present.
func (fm FrontMatter) Get(key string) ([]string, bool) {
	v, ok := fm.Fields[key]
	return v, ok
}

var fieldLine = regexp.MustCompile(`^[A-Za-z0-9_]+:`)

// ExtractFrontMatter parses the first block delimited by lines starting with
// "---". Fields are written either as "key: a&b&c" or as a bare "key:"
// followed by "- item" lines. A missing or unterminated block yields an empty
// FrontMatter.
func ExtractFrontMatter(text string) FrontMatter {
	fm := FrontMatter{Fields: map[string][]string{}}

	lines := splitLines(text)
	start, end := -1, -1
	for i, line := range lines {
		if !strings.HasPrefix(line, "---") {
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		end = i
		break
	}
	if start < 0 || end < 0 {
		return fm
	}

	fm.Raw = strings.Join(lines[start:end+1], "\n") + "\n"

	var (
		key    string
		values []string
	)
	commit := func() {
		if key != "" {
			fm.Fields[key] = values
		}
	}

	for _, line := range lines[start+1 : end] {
		if fieldLine.MatchString(line) {
			commit()
			name, rest, _ := strings.Cut(line, ":")
			key = strings.TrimSpace(name)
			values = splitScalar(rest)
			continue
		}
		if item, ok := strings.CutPrefix(strings.TrimSpace(line), "-"); ok && key != "" {
			values = append(values, strings.TrimSpace(item))
		}
	}
	commit()

	return fm
}

// splitScalar splits an inline value on "&". An empty value starts an empty
// list.
func splitScalar(raw string) []string {
	raw = strings.TrimSpace(raw)
	values := []string{}
	if raw == "" {
		return values
	}
	for _, v := range strings.Split(raw, "&") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
